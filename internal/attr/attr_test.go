package attr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Attributes {
	return &Attributes{
		CatalogueOID:          1,
		PropertyObjectTypeOID: 42,
		Items: []Attribute{
			&Simple{Type: 7, Values: []string{"road", "E4 & E20"}},
			&Structured{Type: 9, Items: []Attribute{
				&Simple{Type: 10, Values: []string{"50"}},
				&Structured{Type: 11, Items: []Attribute{
					&Simple{Type: 12, Values: []string{"<none>"}},
				}},
			}},
		},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc, err := Marshal(sample())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, `<Attributes xmlns="`+Namespace+`"`))
	assert.Contains(t, doc, `catalogueOID="1"`)
	assert.Contains(t, doc, "E4 &amp; E20")

	got, err := Unmarshal(doc)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
	assert.Equal(t, 3, got.Leaves())
}

func TestLeaves(t *testing.T) {
	tests := []struct {
		name  string
		items []Attribute
		want  int
	}{
		{"empty", nil, 0},
		{"one simple with many values", []Attribute{&Simple{Type: 1, Values: []string{"a", "b", "c"}}}, 1},
		{"empty structured", []Attribute{&Structured{Type: 1}}, 0},
		{"nested", []Attribute{
			&Simple{Type: 1},
			&Structured{Type: 2, Items: []Attribute{
				&Simple{Type: 3, Values: []string{"a", "b"}},
				&Structured{Type: 4, Items: []Attribute{&Simple{Type: 5}}},
			}},
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Attributes{Items: tt.items}
			assert.Equal(t, tt.want, a.Leaves())
		})
	}
}

func TestUnmarshalDocument(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Attributes xmlns="http://www.opentnf.org" catalogueOID="3" propertyObjectTypeOID="8">
  <SimpleAttribute attributeType="1">
    <values>12</values>
    <values></values>
  </SimpleAttribute>
  <Comment>ignored</Comment>
  <StructuredAttribute attributeType="2"/>
</Attributes>`

	got, err := Unmarshal(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CatalogueOID)
	assert.Equal(t, 8, got.PropertyObjectTypeOID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, &Simple{Type: 1, Values: []string{"12", ""}}, got.Items[0])
	assert.Equal(t, &Structured{Type: 2}, got.Items[1])

	a, ok := got.Find(2)
	require.True(t, ok)
	assert.IsType(t, &Structured{}, a)
	_, ok = got.Find(99)
	assert.False(t, ok)
}

func TestUnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "wrong root", doc: `<Values/>`},
		{name: "bad oid", doc: `<Attributes catalogueOID="x"/>`},
		{name: "bad attribute type", doc: `<Attributes><SimpleAttribute attributeType="?"/></Attributes>`},
		{name: "unterminated", doc: `<Attributes><SimpleAttribute attributeType="1"><values>1</values>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.doc)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
