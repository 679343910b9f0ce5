// Package encoding implements the AMQP 0-9-1 field-value and argument
// codec: the primitive types that method arguments and content-header
// property lists are built from. It is side-effect free — no I/O, no
// connection or channel state — so that the framing and method layers
// above it can be tested independently of the wire.
package encoding

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
)

// ErrSyntax is returned when a field-table or string value cannot be
// decoded from the supplied bytes.
var ErrSyntax = errors.New("encoding: malformed field value")

// Table is an AMQP field-table: a map of names to typed values. Values may
// be any of: bool, int8, uint8, int16, uint16, int32, uint32, int64, uint64,
// float32, float64, string, []byte, time.Time, Decimal, Table, []interface{}
// or nil.
type Table map[string]interface{}

// Decimal is the AMQP decimal-value type: scale digits to the right of the
// decimal point applied to an unscaled signed integer value.
type Decimal struct {
	Scale uint8
	Value int32
}

// writer wraps an io.Writer with the big-endian primitive writers the
// method and property codecs are built from.
type writer struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *writer { return &writer{w: w} }

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *writer) WriteOctet(v uint8) { w.write([]byte{v}) }

func (w *writer) WriteShort(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.write(b[:])
}

func (w *writer) WriteLong(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.write(b[:])
}

func (w *writer) WriteLonglong(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.write(b[:])
}

func (w *writer) WriteShortstr(s string) {
	if len(s) > 255 {
		if w.err == nil {
			w.err = errors.Errorf("encoding: short string %q exceeds 255 bytes", s)
		}
		return
	}
	w.WriteOctet(uint8(len(s)))
	w.write([]byte(s))
}

func (w *writer) WriteLongstr(s string) {
	w.WriteLong(uint32(len(s)))
	w.write([]byte(s))
}

func (w *writer) WriteBytes(b []byte) {
	w.WriteLong(uint32(len(b)))
	w.write(b)
}

func (w *writer) WriteTimestamp(t time.Time) {
	w.WriteLonglong(uint64(t.Unix()))
}

func (w *writer) WriteField(v interface{}) {
	switch val := v.(type) {
	case nil:
		w.write([]byte{'V'})
	case bool:
		w.write([]byte{'t'})
		if val {
			w.WriteOctet(1)
		} else {
			w.WriteOctet(0)
		}
	case int8:
		w.write([]byte{'b'})
		w.WriteOctet(uint8(val))
	case uint8:
		w.write([]byte{'B'})
		w.WriteOctet(val)
	case int16:
		w.write([]byte{'s'})
		w.WriteShort(uint16(val))
	case uint16:
		w.write([]byte{'u'})
		w.WriteShort(val)
	case int32:
		w.write([]byte{'I'})
		w.WriteLong(uint32(val))
	case uint32:
		w.write([]byte{'i'})
		w.WriteLong(val)
	case int64:
		w.write([]byte{'L'})
		w.WriteLonglong(uint64(val))
	case uint64:
		w.write([]byte{'l'})
		w.WriteLonglong(val)
	case float32:
		w.write([]byte{'f'})
		w.WriteLong(math.Float32bits(val))
	case float64:
		w.write([]byte{'d'})
		w.WriteLonglong(math.Float64bits(val))
	case Decimal:
		w.write([]byte{'D'})
		w.WriteOctet(val.Scale)
		w.WriteLong(uint32(val.Value))
	case string:
		w.write([]byte{'S'})
		w.WriteLongstr(val)
	case []byte:
		w.write([]byte{'x'})
		w.WriteBytes(val)
	case time.Time:
		w.write([]byte{'T'})
		w.WriteTimestamp(val)
	case Table:
		w.write([]byte{'F'})
		w.WriteTable(val)
	case []interface{}:
		w.write([]byte{'A'})
		w.WriteArray(val)
	default:
		if w.err == nil {
			w.err = errors.Errorf("encoding: unsupported field-table value type %T", v)
		}
	}
}

func (w *writer) WriteArray(a []interface{}) {
	var buf countingBuffer
	inner := newWriter(&buf)
	for _, v := range a {
		inner.WriteField(v)
	}
	if inner.err != nil {
		w.err = inner.err
		return
	}
	w.WriteBytes(buf.Bytes())
}

func (w *writer) WriteTable(t Table) {
	var buf countingBuffer
	inner := newWriter(&buf)
	for k, v := range t {
		inner.WriteShortstr(k)
		inner.WriteField(v)
	}
	if inner.err != nil {
		w.err = inner.err
		return
	}
	w.WriteBytes(buf.Bytes())
}

type countingBuffer struct {
	b []byte
}

func (c *countingBuffer) Write(p []byte) (int, error) {
	c.b = append(c.b, p...)
	return len(p), nil
}

func (c *countingBuffer) Bytes() []byte { return c.b }

// reader wraps an io.Reader with the big-endian primitive readers.
type reader struct {
	r   io.Reader
	err error
}

func newReader(r io.Reader) *reader { return &reader{r: r} }

func (r *reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = err
		return nil
	}
	return b
}

func (r *reader) ReadOctet() uint8 {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) ReadShort() uint16 {
	b := r.read(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) ReadLong() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) ReadLonglong() uint64 {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) ReadShortstr() string {
	n := r.ReadOctet()
	b := r.read(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) ReadBytes() []byte {
	n := r.ReadLong()
	return r.read(int(n))
}

func (r *reader) ReadLongstr() string {
	return string(r.ReadBytes())
}

func (r *reader) ReadTimestamp() time.Time {
	return time.Unix(int64(r.ReadLonglong()), 0)
}

func (r *reader) ReadField() interface{} {
	if r.err != nil {
		return nil
	}
	tag := r.read(1)
	if tag == nil {
		return nil
	}
	switch tag[0] {
	case 't':
		return r.ReadOctet() != 0
	case 'b':
		return int8(r.ReadOctet())
	case 'B':
		return r.ReadOctet()
	case 's':
		return int16(r.ReadShort())
	case 'u':
		return r.ReadShort()
	case 'I':
		return int32(r.ReadLong())
	case 'i':
		return r.ReadLong()
	case 'L':
		return int64(r.ReadLonglong())
	case 'l':
		return r.ReadLonglong()
	case 'f':
		return math.Float32frombits(r.ReadLong())
	case 'd':
		return math.Float64frombits(r.ReadLonglong())
	case 'D':
		scale := r.ReadOctet()
		value := int32(r.ReadLong())
		return Decimal{Scale: scale, Value: value}
	case 'S':
		return r.ReadLongstr()
	case 'x':
		return r.ReadBytes()
	case 'T':
		return r.ReadTimestamp()
	case 'F':
		return r.ReadTable()
	case 'A':
		return r.ReadArray()
	case 'V':
		return nil
	default:
		if r.err == nil {
			r.err = errors.Wrapf(ErrSyntax, "unknown field tag %q", tag[0])
		}
		return nil
	}
}

func (r *reader) ReadArray() []interface{} {
	raw := r.ReadBytes()
	if raw == nil {
		return nil
	}
	inner := newReader(newSliceReader(raw))
	var a []interface{}
	for inner.err == nil && inner.remaining() > 0 {
		a = append(a, inner.ReadField())
	}
	if inner.err != nil && inner.err != io.EOF {
		r.err = inner.err
	}
	return a
}

func (r *reader) ReadTable() Table {
	raw := r.ReadBytes()
	if raw == nil {
		return nil
	}
	inner := newReader(newSliceReader(raw))
	t := make(Table)
	for inner.err == nil && inner.remaining() > 0 {
		key := inner.ReadShortstr()
		t[key] = inner.ReadField()
	}
	if inner.err != nil && inner.err != io.EOF {
		r.err = inner.err
	}
	return t
}

// sliceReader is an io.Reader over an in-memory slice that also exposes how
// many bytes remain, letting ReadTable/ReadArray know when their
// length-delimited region has been fully consumed without an explicit count.
type sliceReader struct {
	b []byte
	i int
}

func newSliceReader(b []byte) *sliceReader { return &sliceReader{b: b} }

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.i:])
	s.i += n
	return n, nil
}

func (r *reader) remaining() int {
	sr, ok := r.r.(*sliceReader)
	if !ok {
		return 0
	}
	return len(sr.b) - sr.i
}

// WriteTable encodes t to w in AMQP field-table wire format (length-prefixed).
func WriteTable(w io.Writer, t Table) error {
	wr := newWriter(w)
	wr.WriteTable(t)
	return wr.err
}

// ReadTable decodes an AMQP field-table from r.
func ReadTable(r io.Reader) (Table, error) {
	rd := newReader(r)
	t := rd.ReadTable()
	return t, rd.err
}

// BitWriter packs up to 8 boolean flags into a single octet, in the order AMQP
// 0-9-1 requires consecutive bit arguments to be packed.
type BitWriter struct {
	cur  byte
	n    uint
	w    *writer
	open bool
}

func newBitWriter(w *writer) *BitWriter { return &BitWriter{w: w} }

func (b *BitWriter) Put(v bool) {
	if v {
		b.cur |= 1 << b.n
	}
	b.n++
	b.open = true
	if b.n == 8 {
		b.Flush()
	}
}

func (b *BitWriter) Flush() {
	if !b.open {
		return
	}
	b.w.WriteOctet(b.cur)
	b.cur = 0
	b.n = 0
	b.open = false
}

type BitReader struct {
	cur byte
	n   uint
	r   *reader
}

func newBitReader(r *reader) *BitReader { return &BitReader{r: r, n: 8} }

func (b *BitReader) Next() bool {
	if b.n == 8 {
		b.cur = b.r.ReadOctet()
		b.n = 0
	}
	v := b.cur&(1<<b.n) != 0
	b.n++
	return v
}
