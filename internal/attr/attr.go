// Package attr models the attribute tree stored in
// tnf_property.attribute_values and converts it to and from its XML form.
//
// An attribute is either Simple, carrying a list of string values, or
// Structured, carrying child attributes. Both are tagged with the catalogue
// attribute type they instantiate.
package attr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Namespace is the XML namespace of the attribute document.
const Namespace = "http://www.opentnf.org"

const (
	rootElem       = "Attributes"
	simpleElem     = "SimpleAttribute"
	structuredElem = "StructuredAttribute"
	valueElem      = "values"
)

// ErrMalformed is returned when a document cannot be parsed.
var ErrMalformed = errors.New("malformed attribute document")

// Attribute is a node of the tree: *Simple or *Structured.
type Attribute interface {
	AttributeType() int
	isAttribute()
}

// Simple is a leaf carrying values.
type Simple struct {
	Type   int
	Values []string
}

// Structured is an inner node carrying child attributes.
type Structured struct {
	Type  int
	Items []Attribute
}

func (s *Simple) AttributeType() int     { return s.Type }
func (s *Structured) AttributeType() int { return s.Type }
func (*Simple) isAttribute()             {}
func (*Structured) isAttribute()         {}

// Attributes is the root of a property's attribute tree.
type Attributes struct {
	CatalogueOID          int
	PropertyObjectTypeOID int
	Items                 []Attribute
}

// Find returns the first top-level attribute of the given type.
func (a *Attributes) Find(attributeType int) (Attribute, bool) {
	for _, it := range a.Items {
		if it.AttributeType() == attributeType {
			return it, true
		}
	}
	return nil, false
}

// Leaves counts the Simple attributes in the tree, at any depth. Values
// are not counted: a Simple carrying several values is one leaf.
func (a *Attributes) Leaves() int {
	return countLeaves(a.Items)
}

func countLeaves(items []Attribute) int {
	n := 0
	for _, it := range items {
		switch v := it.(type) {
		case *Simple:
			n++
		case *Structured:
			n += countLeaves(v.Items)
		}
	}
	return n
}

// Marshal renders a as an XML document.
func Marshal(a *Attributes) (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	start := xml.StartElement{
		Name: xml.Name{Local: rootElem},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: Namespace},
			intAttr("catalogueOID", a.CatalogueOID),
			intAttr("propertyObjectTypeOID", a.PropertyObjectTypeOID),
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return "", err
	}
	if err := encodeItems(enc, a.Items); err != nil {
		return "", err
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func intAttr(name string, v int) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: strconv.Itoa(v)}
}

func encodeItems(enc *xml.Encoder, items []Attribute) error {
	for _, it := range items {
		switch v := it.(type) {
		case *Simple:
			start := xml.StartElement{Name: xml.Name{Local: simpleElem}, Attr: []xml.Attr{intAttr("attributeType", v.Type)}}
			if err := enc.EncodeToken(start); err != nil {
				return err
			}
			for _, val := range v.Values {
				if err := enc.EncodeElement(val, xml.StartElement{Name: xml.Name{Local: valueElem}}); err != nil {
					return err
				}
			}
			if err := enc.EncodeToken(start.End()); err != nil {
				return err
			}
		case *Structured:
			start := xml.StartElement{Name: xml.Name{Local: structuredElem}, Attr: []xml.Attr{intAttr("attributeType", v.Type)}}
			if err := enc.EncodeToken(start); err != nil {
				return err
			}
			if err := encodeItems(enc, v.Items); err != nil {
				return err
			}
			if err := enc.EncodeToken(start.End()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported attribute %T", it)
		}
	}
	return nil
}

// Unmarshal parses an XML attribute document. Unknown elements are
// skipped.
func Unmarshal(doc string) (*Attributes, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != rootElem {
		return nil, fmt.Errorf("%w: root element %q", ErrMalformed, root.Name.Local)
	}
	a := &Attributes{}
	if a.CatalogueOID, err = attrInt(root, "catalogueOID"); err != nil {
		return nil, err
	}
	if a.PropertyObjectTypeOID, err = attrInt(root, "propertyObjectTypeOID"); err != nil {
		return nil, err
	}
	if a.Items, err = decodeItems(dec); err != nil {
		return nil, err
	}
	return a, nil
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, fmt.Errorf("%w: empty document", ErrMalformed)
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// attrInt reads an integer attribute; a missing attribute reads as 0.
func attrInt(se xml.StartElement, name string) (int, error) {
	for _, at := range se.Attr {
		if at.Name.Local == name {
			v, err := strconv.Atoi(strings.TrimSpace(at.Value))
			if err != nil {
				return 0, fmt.Errorf("%w: %s=%q", ErrMalformed, name, at.Value)
			}
			return v, nil
		}
	}
	return 0, nil
}

// decodeItems reads child attributes up to the end of the enclosing
// element.
func decodeItems(dec *xml.Decoder) ([]Attribute, error) {
	var items []Attribute
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return items, nil
		case xml.StartElement:
			typ, err := attrInt(t, "attributeType")
			if err != nil {
				return nil, err
			}
			switch t.Name.Local {
			case simpleElem:
				s := &Simple{Type: typ}
				if s.Values, err = decodeValues(dec); err != nil {
					return nil, err
				}
				items = append(items, s)
			case structuredElem:
				s := &Structured{Type: typ}
				if s.Items, err = decodeItems(dec); err != nil {
					return nil, err
				}
				items = append(items, s)
			default:
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
			}
		}
	}
}

func decodeValues(dec *xml.Decoder) ([]string, error) {
	var values []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return values, nil
		case xml.StartElement:
			if t.Name.Local != valueElem {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
				continue
			}
			var v string
			if err := dec.DecodeElement(&v, &t); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			values = append(values, v)
		}
	}
}
