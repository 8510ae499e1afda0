package sqlite

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func TestChangeLogAssignsOIDs(t *testing.T) {
	db := newDataset(t, testConfig())
	txs, err := db.ChangeTransactions()
	require.NoError(t, err)
	changes, err := db.Changes()
	require.NoError(t, err)

	tx := &types.ChangeTransaction{Name: "import", Creator: "loader"}
	require.NoError(t, txs.Add(tx))
	id, err := uuid.Parse(tx.OID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	got, err := txs.Get(tx.OID)
	require.NoError(t, err)
	assert.Equal(t, "import", got.Name)
	assert.False(t, got.CreationTime.IsZero())

	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, c := range []*types.Change{
		{ClassID: "link", ChangeType: 1, ChangeReason: "new", Timestamp: when},
		{OID: "fixed", ClassID: "node", ChangeType: 2, ChangeReason: "moved", Timestamp: when},
	} {
		c.ChangeTransactionOID = tx.OID
		c.OrderNumber = int32(i + 1)
		require.NoError(t, changes.Add(c))
	}

	list, err := changes.ByTransaction(tx.OID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].OID)
	assert.NotEqual(t, tx.OID, list[0].OID)
	assert.Equal(t, "fixed", list[1].OID)
	assert.Equal(t, when, list[1].Timestamp)

	explicit := &types.ChangeTransaction{OID: "tx-2", Name: "manual", Creator: "me"}
	require.NoError(t, txs.Add(explicit))
	assert.Equal(t, "tx-2", explicit.OID)
}
