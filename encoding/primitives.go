package encoding

import (
	"encoding/binary"
)

// TLNum is a TLV Type or Length number.
type TLNum uint64

// Nat is a TLV non-negative integer.
type Nat uint64

func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

func (v TLNum) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], uint64(x))
		return 9
	}
}

// ParseTLNum parses a TLNum from the front of buf.
// Returns pos = 0 on truncated input.
func ParseTLNum(buf Buffer) (val TLNum, pos int) {
	if len(buf) < 1 {
		return 0, 0
	}
	switch x := buf[0]; {
	case x <= 0xfc:
		val = TLNum(x)
		pos = 1
	case x == 0xfd:
		if len(buf) < 3 {
			return 0, 0
		}
		val = TLNum(binary.BigEndian.Uint16(buf[1:3]))
		pos = 3
	case x == 0xfe:
		if len(buf) < 5 {
			return 0, 0
		}
		val = TLNum(binary.BigEndian.Uint32(buf[1:5]))
		pos = 5
	case x == 0xff:
		if len(buf) < 9 {
			return 0, 0
		}
		val = TLNum(binary.BigEndian.Uint64(buf[1:9]))
		pos = 9
	}
	return
}

func (v Nat) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xff:
		return 1
	case x <= 0xffff:
		return 2
	case x <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

func (v Nat) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xff:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		binary.BigEndian.PutUint16(buf, uint16(x))
		return 2
	case x <= 0xffffffff:
		binary.BigEndian.PutUint32(buf, uint32(x))
		return 4
	default:
		binary.BigEndian.PutUint64(buf, uint64(x))
		return 8
	}
}

func (v Nat) Bytes() []byte {
	buf := make([]byte, v.EncodingLength())
	v.EncodeInto(buf)
	return buf
}

// ParseNat parses a non-negative integer that occupies the whole buffer.
func ParseNat(buf Buffer) (val Nat, err error) {
	switch len(buf) {
	case 1:
		val = Nat(buf[0])
	case 2:
		val = Nat(binary.BigEndian.Uint16(buf))
	case 4:
		val = Nat(binary.BigEndian.Uint32(buf))
	case 8:
		val = Nat(binary.BigEndian.Uint64(buf))
	default:
		return 0, ErrFormat{"natural number length is not 1, 2, 4 or 8"}
	}
	return val, nil
}

// ParseTL parses the type and length numbers of a TLV block, and checks
// that the value fits in the remaining input.
// Returns the value offset within buf.
func ParseTL(buf Buffer) (typ TLNum, length int, pos int, err error) {
	typ, p1 := ParseTLNum(buf)
	if p1 == 0 {
		return 0, 0, 0, ErrBufferOverflow
	}
	l, p2 := ParseTLNum(buf[p1:])
	if p2 == 0 {
		return 0, 0, 0, ErrBufferOverflow
	}
	pos = p1 + p2
	length = int(l)
	if length < 0 || pos+length > len(buf) {
		return 0, 0, 0, ErrBufferOverflow
	}
	return typ, length, pos, nil
}

// AppendTLNum appends the encoding of v to buf.
func AppendTLNum(buf []byte, v TLNum) []byte {
	tmp := make([]byte, v.EncodingLength())
	v.EncodeInto(tmp)
	return append(buf, tmp...)
}

// AppendBlock appends a whole TLV block with the given type and value.
func AppendBlock(buf []byte, typ TLNum, val []byte) []byte {
	buf = AppendTLNum(buf, typ)
	buf = AppendTLNum(buf, TLNum(len(val)))
	return append(buf, val...)
}

// AppendNatBlock appends a TLV block holding a shortest-form natural number.
func AppendNatBlock(buf []byte, typ TLNum, v uint64) []byte {
	return AppendBlock(buf, typ, Nat(v).Bytes())
}
