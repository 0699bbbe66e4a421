package encoding

import (
	"strings"

	"github.com/cespare/xxhash"
)

const TypeName TLNum = 0x07

// Name is an ordered sequence of components.
type Name []Component

func (n Name) Clone() Name {
	ret := make(Name, len(n))
	for i, c := range n {
		ret[i] = c.Clone()
	}
	return ret
}

// Append returns a new name with the given components appended.
// The receiver is never modified in place.
func (n Name) Append(rest ...Component) Name {
	ret := make(Name, 0, len(n)+len(rest))
	ret = append(ret, n...)
	ret = append(ret, rest...)
	return ret
}

// At returns the i-th component. Negative indices count from the end.
func (n Name) At(i int) Component {
	if i < 0 {
		i += len(n)
	}
	if i < 0 || i >= len(n) {
		return Component{}
	}
	return n[i]
}

// Prefix returns the first k components. Negative k counts from the end.
func (n Name) Prefix(k int) Name {
	if k < 0 {
		k += len(n)
	}
	if k < 0 {
		k = 0
	}
	if k > len(n) {
		k = len(n)
	}
	return n[:k]
}

// Compare orders names canonically: component-wise with a shorter name
// ordering before its extensions.
func (n Name) Compare(rhs Name) int {
	l := min(len(n), len(rhs))
	for i := 0; i < l; i++ {
		if r := n[i].Compare(rhs[i]); r != 0 {
			return r
		}
	}
	switch {
	case len(n) < len(rhs):
		return -1
	case len(n) > len(rhs):
		return 1
	default:
		return 0
	}
}

func (n Name) Equal(rhs Name) bool {
	return n.Compare(rhs) == 0
}

// IsPrefixOf reports whether n is a prefix of rhs (equality included).
func (n Name) IsPrefixOf(rhs Name) bool {
	if len(n) > len(rhs) {
		return false
	}
	for i, c := range n {
		if !c.Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// Successor returns the smallest name strictly greater than n that is
// not an extension of n. Every name with prefix n orders in
// [n, n.Successor()). The empty name has no successor.
func (n Name) Successor() Name {
	if len(n) == 0 {
		return nil
	}
	return n.Prefix(len(n) - 1).Append(n[len(n)-1].Successor())
}

func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteRune('/')
		c.WriteTo(&sb)
	}
	return sb.String()
}

// EncodingLength returns the byte length of the whole Name TLV block.
func (n Name) EncodingLength() int {
	l := n.innerLength()
	return TypeName.EncodingLength() + TLNum(l).EncodingLength() + l
}

func (n Name) innerLength() int {
	l := 0
	for _, c := range n {
		l += c.EncodingLength()
	}
	return l
}

func (n Name) EncodeInto(buf Buffer) int {
	inner := n.innerLength()
	p := TypeName.EncodeInto(buf)
	p += TLNum(inner).EncodeInto(buf[p:])
	for _, c := range n {
		p += c.EncodeInto(buf[p:])
	}
	return p
}

// Bytes returns the whole Name TLV block.
func (n Name) Bytes() []byte {
	buf := make([]byte, n.EncodingLength())
	n.EncodeInto(buf)
	return buf
}

// BytesInner returns the concatenated component encodings without the
// Name type and length header.
func (n Name) BytesInner() []byte {
	buf := make([]byte, n.innerLength())
	p := 0
	for _, c := range n {
		p += c.EncodeInto(buf[p:])
	}
	return buf
}

// TlvStr returns the inner TLV encoding as a string, usable as a map key.
func (n Name) TlvStr() string {
	return string(n.BytesInner())
}

// Hash returns the xxhash of the name encoding.
func (n Name) Hash() uint64 {
	return xxhash.Sum64(n.BytesInner())
}

// ParseName parses a whole Name TLV block from the front of buf.
func ParseName(buf Buffer) (Name, int, error) {
	typ, l, pos, err := ParseTL(buf)
	if err != nil {
		return nil, 0, err
	}
	if typ != TypeName {
		return nil, 0, ErrUnexpectedType{"Name", TypeName, typ}
	}
	ret, err := ParseNameValue(buf[pos : pos+l])
	if err != nil {
		return nil, 0, err
	}
	return ret, pos + l, nil
}

// ParseNameValue parses the concatenated components forming the value
// of a Name TLV block.
func ParseNameValue(buf Buffer) (Name, error) {
	ret := make(Name, 0, 8)
	for off := 0; off < len(buf); {
		c, n, err := ParseComponent(buf[off:])
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
		off += n
	}
	return ret, nil
}

// NameFromStr parses the URI form of a name.
func NameFromStr(s string) (Name, error) {
	s = strings.TrimPrefix(s, "ndn:")
	s = strings.Trim(s, "/")
	if s == "" {
		return Name{}, nil
	}
	parts := strings.Split(s, "/")
	ret := make(Name, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		c, err := ComponentFromStr(p)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

// NameFromBytes parses a whole Name TLV block.
func NameFromBytes(buf []byte) (Name, error) {
	n, _, err := ParseName(buf)
	return n, err
}

// WithSegment appends a segment component, replacing an existing one.
func (n Name) WithSegment(seg uint64) Name {
	if n.At(-1).IsSegment() {
		n = n.Prefix(-1)
	}
	return n.Append(NewSegmentComponent(seg))
}

// WithVersion appends a version component, replacing an existing one.
func (n Name) WithVersion(v uint64) Name {
	if n.At(-1).IsVersion() {
		n = n.Prefix(-1)
	}
	return n.Append(NewVersionComponent(v))
}

// IsFullName reports whether the name ends in an implicit digest.
func (n Name) IsFullName() bool {
	return n.At(-1).IsDigest()
}
