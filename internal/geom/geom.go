// Package geom encodes and decodes GeoPackage geometry blobs: the "GP"
// binary header followed by a well-known-binary geometry. Only the 2-D
// geometry types stored by OpenTNF files are supported.
package geom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// WKB geometry type codes.
const (
	TypePoint           uint32 = 1
	TypeLineString      uint32 = 2
	TypePolygon         uint32 = 3
	TypeMultiPoint      uint32 = 4
	TypeMultiLineString uint32 = 5
	TypeMultiPolygon    uint32 = 6
)

const (
	flagLittleEndian = 0x01
	flagEnvelopeMask = 0x0e
	flagEmpty        = 0x10
	flagExtended     = 0x20
)

// Errors returned by the decoder.
var (
	ErrNotGeoPackage = errors.New("not a GeoPackage geometry blob")
	ErrUnsupported   = errors.New("unsupported geometry")
	ErrTruncated     = errors.New("geometry blob is truncated")
)

// Point is a 2-D coordinate.
type Point struct {
	X, Y float64
}

// Envelope is the bounding box of a geometry.
type Envelope struct {
	MinX, MaxX, MinY, MaxY float64
}

func (e *Envelope) extend(p Point) {
	e.MinX = math.Min(e.MinX, p.X)
	e.MaxX = math.Max(e.MaxX, p.X)
	e.MinY = math.Min(e.MinY, p.Y)
	e.MaxY = math.Max(e.MaxY, p.Y)
}

func emptyEnvelope() Envelope {
	return Envelope{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
}

// Header is the decoded GeoPackage binary header.
type Header struct {
	SRID     int32
	Empty    bool
	Envelope *Envelope

	// WKB is the offset of the well-known-binary body.
	WKB int
}

// EncodePoint returns a GeoPackage blob holding p.
func EncodePoint(srid int32, p Point) []byte {
	w := newWriter(srid, Envelope{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y})
	w.header(TypePoint)
	w.point(p)
	return w.buf
}

// EncodeLineString returns a GeoPackage blob holding a line through pts.
func EncodeLineString(srid int32, pts []Point) []byte {
	env := emptyEnvelope()
	for _, p := range pts {
		env.extend(p)
	}
	w := newWriter(srid, env)
	w.header(TypeLineString)
	w.points(pts)
	return w.buf
}

// EncodePolygon returns a GeoPackage blob holding a polygon. The first ring
// is the exterior ring.
func EncodePolygon(srid int32, rings [][]Point) []byte {
	env := emptyEnvelope()
	for _, r := range rings {
		for _, p := range r {
			env.extend(p)
		}
	}
	w := newWriter(srid, env)
	w.header(TypePolygon)
	w.u32(uint32(len(rings)))
	for _, r := range rings {
		w.points(r)
	}
	return w.buf
}

type writer struct {
	buf []byte
}

// newWriter writes a little-endian header carrying an XY envelope.
func newWriter(srid int32, env Envelope) *writer {
	w := &writer{buf: make([]byte, 0, 64)}
	w.buf = append(w.buf, 'G', 'P', 0, flagLittleEndian|(1<<1))
	w.u32(uint32(srid))
	w.f64(env.MinX)
	w.f64(env.MaxX)
	w.f64(env.MinY)
	w.f64(env.MaxY)
	return w
}

func (w *writer) header(t uint32) {
	w.buf = append(w.buf, 1)
	w.u32(t)
}

func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *writer) f64(v float64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v)) }

func (w *writer) point(p Point) {
	w.f64(p.X)
	w.f64(p.Y)
}

func (w *writer) points(pts []Point) {
	w.u32(uint32(len(pts)))
	for _, p := range pts {
		w.point(p)
	}
}

// ParseHeader decodes the binary header of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return Header{}, ErrNotGeoPackage
	}
	flags := b[3]
	if flags&flagExtended != 0 {
		return Header{}, fmt.Errorf("%w: extended geometry type", ErrUnsupported)
	}
	var order binary.ByteOrder = binary.BigEndian
	if flags&flagLittleEndian != 0 {
		order = binary.LittleEndian
	}
	h := Header{
		SRID:  int32(order.Uint32(b[4:8])),
		Empty: flags&flagEmpty != 0,
		WKB:   8,
	}
	var size int
	switch (flags & flagEnvelopeMask) >> 1 {
	case 0:
	case 1:
		size = 32
	case 2, 3:
		size = 48
	case 4:
		size = 64
	default:
		return Header{}, fmt.Errorf("%w: envelope indicator", ErrUnsupported)
	}
	if len(b) < 8+size {
		return Header{}, ErrTruncated
	}
	if size > 0 {
		f := func(i int) float64 { return math.Float64frombits(order.Uint64(b[8+8*i:])) }
		h.Envelope = &Envelope{MinX: f(0), MaxX: f(1), MinY: f(2), MaxY: f(3)}
	}
	h.WKB = 8 + size
	return h, nil
}

// EnvelopeOf returns the bounding box of the geometry in b, taken from the
// header when present and computed from the body otherwise. empty reports
// a geometry without coordinates.
func EnvelopeOf(b []byte) (env Envelope, empty bool, err error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Envelope{}, false, err
	}
	if h.Empty {
		return Envelope{}, true, nil
	}
	if h.Envelope != nil {
		return *h.Envelope, false, nil
	}
	r := &reader{buf: b[h.WKB:]}
	env = emptyEnvelope()
	if err := r.geometry(&env); err != nil {
		return Envelope{}, false, err
	}
	if math.IsInf(env.MinX, 1) {
		return Envelope{}, true, nil
	}
	return env, false, nil
}

type reader struct {
	buf   []byte
	order binary.ByteOrder
}

func (r *reader) need(n int) error {
	if len(r.buf) < n {
		return ErrTruncated
	}
	return nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf)
	r.buf = r.buf[4:]
	return v, nil
}

func (r *reader) pt() (Point, error) {
	if err := r.need(16); err != nil {
		return Point{}, err
	}
	p := Point{
		X: math.Float64frombits(r.order.Uint64(r.buf)),
		Y: math.Float64frombits(r.order.Uint64(r.buf[8:])),
	}
	r.buf = r.buf[16:]
	return p, nil
}

func (r *reader) ring(env *Envelope) error {
	n, err := r.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		p, err := r.pt()
		if err != nil {
			return err
		}
		env.extend(p)
	}
	return nil
}

// geometry reads one WKB geometry, including its byte-order marker.
func (r *reader) geometry(env *Envelope) error {
	if err := r.need(1); err != nil {
		return err
	}
	if r.buf[0] == 1 {
		r.order = binary.LittleEndian
	} else {
		r.order = binary.BigEndian
	}
	r.buf = r.buf[1:]
	t, err := r.u32()
	if err != nil {
		return err
	}
	switch t {
	case TypePoint:
		p, err := r.pt()
		if err != nil {
			return err
		}
		if !math.IsNaN(p.X) && !math.IsNaN(p.Y) {
			env.extend(p)
		}
		return nil
	case TypeLineString:
		return r.ring(env)
	case TypePolygon:
		n, err := r.u32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if err := r.ring(env); err != nil {
				return err
			}
		}
		return nil
	case TypeMultiPoint, TypeMultiLineString, TypeMultiPolygon:
		n, err := r.u32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if err := r.geometry(env); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: WKB type %d", ErrUnsupported, t)
}
