package bytecode

import "encoding/binary"

// Body is a growable DXB byte buffer. Unlike the teacher's Chunk (which
// keeps a side constants table the VM indexes by reference), DXB embeds
// every value inline in the instruction stream, so Body only needs raw
// byte-level write helpers.
type Body struct {
	Bytes []byte
}

func NewBody() *Body {
	return &Body{Bytes: []byte{}}
}

func (b *Body) WriteOp(op OpCode) {
	b.Bytes = append(b.Bytes, byte(op))
}

func (b *Body) WriteTypeOp(op TypeOpCode) {
	b.Bytes = append(b.Bytes, byte(op))
}

func (b *Body) WriteByte(v byte) {
	b.Bytes = append(b.Bytes, v)
}

func (b *Body) WriteUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.Bytes = append(b.Bytes, buf[:]...)
}

func (b *Body) WriteUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.Bytes = append(b.Bytes, buf[:]...)
}

func (b *Body) WriteBytes(data []byte) {
	b.Bytes = append(b.Bytes, data...)
}

// WriteLenPrefixedBytes writes a u32 byte length followed by the bytes,
// the layout of the long-form variable-length DXB payloads (spec.md
// §4.E); the short forms such as SHORT_TEXT and ENDPOINT use a u8 length.
func (b *Body) WriteLenPrefixedBytes(data []byte) {
	b.WriteUint32(uint32(len(data)))
	b.WriteBytes(data)
}

func (b *Body) Append(other *Body) {
	b.Bytes = append(b.Bytes, other.Bytes...)
}

func (b *Body) Len() int { return len(b.Bytes) }

// Reader walks a Body's bytes from the front, consumed by the decoder's
// instruction iterator (spec.md §4.E `iterate_instructions`).
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) AtEnd() bool { return r.pos >= len(r.data) }

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) ReadByte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	v := r.data[r.pos]
	r.pos++
	return v, true
}

func (r *Reader) ReadOp() (OpCode, bool) {
	b, ok := r.ReadByte()
	return OpCode(b), ok
}

func (r *Reader) ReadTypeOp() (TypeOpCode, bool) {
	b, ok := r.ReadByte()
	return TypeOpCode(b), ok
}

func (r *Reader) ReadBytes(n int) ([]byte, bool) {
	if r.pos+n > len(r.data) {
		return nil, false
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, true
}

func (r *Reader) ReadUint32() (uint32, bool) {
	buf, ok := r.ReadBytes(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf), true
}

func (r *Reader) ReadUint64() (uint64, bool) {
	buf, ok := r.ReadBytes(8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(buf), true
}

func (r *Reader) ReadLenPrefixedBytes() ([]byte, bool) {
	n, ok := r.ReadUint32()
	if !ok {
		return nil, false
	}
	return r.ReadBytes(int(n))
}
