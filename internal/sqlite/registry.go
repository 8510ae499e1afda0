// This file implements the table registry: every table type registers a
// constructor against a stable tag, and a session keeps at most one
// manager per tag, built on first request.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// tag identifies a table type. The OpenTNF tags are listed in the order
// CreateAllTables creates them.
type tag int

const (
	tagNetwork tag = iota
	tagNetworkReference
	tagDirectLocationReference
	tagLinkSequence
	tagLink
	tagNode
	tagConnectionPort
	tagCatalogue
	tagPropertyObject
	tagProperty
	tagPropertyObjectType
	tagPropertyObjectPropertyType
	tagValidForTypeOfTransport
	tagValueDomain
	tagStructuredValueDomainPropertyType
	tagValidValue
	tagSecondaryLRS
	tagSecondaryLRSIdentity
	tagChangeTransaction
	tagChange
	tagTopologyLevel
	tagArea
	tagTask
	tagTaskEditableType
	tagMetadata

	// Tables outside the creation order.
	tagToDoListMessage
	tagToDoListDetails
	tagContents
	tagGeometryColumns
	tagSpatialRefSys
	tagExtensions
	tagDataColumns
	tagGpkgMetadata
	tagMetadataReference

	numTags
)

// creationOrder is the foreign-key-safe order of CreateAllTables.
var creationOrder = func() []tag {
	out := make([]tag, 0, tagMetadata+1)
	for t := tagNetwork; t <= tagMetadata; t++ {
		out = append(out, t)
	}
	return out
}()

// manager is what the session stores per tag. Every table type embeds a
// *TableManager and so satisfies it.
type manager interface {
	Close() error
	TableName() string
	base() *TableManager
}

type registration struct {
	table string
	build func(*Database) (manager, error)
}

var registry [numTags]registration

// register binds a constructor to t. It is called from package init
// functions; registering a tag twice is a programming error.
func register(t tag, table string, build func(*Database) (manager, error)) {
	if registry[t].build != nil {
		panic(fmt.Sprintf("sqlite: tag %d registered twice", t))
	}
	registry[t] = registration{table: table, build: build}
}

func (t tag) String() string {
	if t >= 0 && t < numTags && registry[t].table != "" {
		return registry[t].table
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// lookup returns the session's manager for t, building it on first use.
func lookup[T manager](d *Database, t tag) (T, error) {
	var zero T
	if d.closed {
		return zero, types.ErrClosed
	}
	if m := d.managers[t]; m != nil {
		return m.(T), nil
	}
	reg := registry[t]
	if reg.build == nil {
		return zero, fmt.Errorf("%w: no table registered for %s", types.ErrConfiguration, t)
	}
	m, err := reg.build(d)
	if err != nil {
		return zero, err
	}
	d.managers[t] = m
	return m.(T), nil
}

// CreateAllTables creates every OpenTNF table missing from the file, in
// foreign-key-safe order. hasTopologyLevel picks the tnf_link variant when
// that table does not exist yet; nil keeps the session default.
func (d *Database) CreateAllTables(hasTopologyLevel *bool) error {
	if _, err := d.connection(); err != nil {
		return err
	}
	if err := d.detectTopologyLevel(hasTopologyLevel); err != nil {
		return err
	}
	for _, t := range creationOrder {
		if _, err := lookup[manager](d, t); err != nil {
			return fmt.Errorf("creating %s: %w", t, err)
		}
	}
	return nil
}

// Tables reports, for every OpenTNF table, whether the file holds it and
// how many rows it has. Unlike the table accessors it creates nothing.
func (d *Database) Tables() ([]types.TableStatus, error) {
	tags := append(append([]tag(nil), creationOrder...), tagToDoListMessage, tagToDoListDetails)
	out := make([]types.TableStatus, 0, len(tags))
	for _, t := range tags {
		st := types.TableStatus{Name: t.String()}
		ok, err := d.TableExists(st.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			st.Exists = true
			n, err := d.QueryScalar("SELECT COUNT(*) FROM " + quoteIdent(st.Name))
			if err != nil {
				return nil, fmt.Errorf("counting %s: %w", st.Name, err)
			}
			st.Rows, _ = n.(int64)
		}
		out = append(out, st)
	}
	return out, nil
}

// Table returns the session's manager for the registered table called
// name, building it on first use.
func (d *Database) Table(name string) (*TableManager, error) {
	for t := tag(0); t < numTags; t++ {
		if strings.EqualFold(registry[t].table, name) {
			m, err := lookup[manager](d, t)
			if err != nil {
				return nil, err
			}
			return m.base(), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown table %q", types.ErrConfiguration, name)
}
