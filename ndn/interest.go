package ndn

import (
	"encoding/binary"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/types/optional"
)

// Interest is a request for a Data packet.
type Interest struct {
	Name      enc.Name
	Selectors Selectors
	Nonce     optional.Optional[uint32]
	Lifetime  optional.Optional[time.Duration]
}

func NewInterest(name enc.Name) *Interest {
	return &Interest{Name: name}
}

func (i *Interest) String() string {
	return i.Name.String()
}

// CanSelect reports whether a data full name can satisfy the interest's
// name and selector constraints. The implicit digest counts as one
// suffix component.
func (i *Interest) CanSelect(fullName enc.Name) bool {
	if !i.Name.IsPrefixOf(fullName) {
		return false
	}
	suffix := uint64(len(fullName) - len(i.Name))
	if v, ok := i.Selectors.MinSuffixComponents.Get(); ok && suffix < v {
		return false
	}
	if v, ok := i.Selectors.MaxSuffixComponents.Get(); ok && suffix > v {
		return false
	}
	if !i.Selectors.Exclude.Empty() && len(fullName) > len(i.Name) &&
		i.Selectors.Exclude.IsExcluded(fullName[len(i.Name)]) {
		return false
	}
	return true
}

// Encode produces the Interest wire encoding. A nonce must be present.
func (i *Interest) Encode() ([]byte, error) {
	if !i.Nonce.IsSet() {
		return nil, ErrInvalidValue{Item: "Nonce", Value: nil}
	}
	inner := make([]byte, 0, 64+len(i.Name.BytesInner()))
	inner = append(inner, i.Name.Bytes()...)
	inner = append(inner, i.Selectors.Encode()...)
	nonce := make([]byte, 4)
	binary.BigEndian.PutUint32(nonce, i.Nonce.Unwrap())
	inner = enc.AppendBlock(inner, TypeNonce, nonce)
	if lt, ok := i.Lifetime.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeInterestLifetime, uint64(lt.Milliseconds()))
	}
	return enc.AppendBlock(nil, TypeInterest, inner), nil
}

// ParseInterest parses a whole Interest TLV block from the front of buf
// and returns the number of bytes consumed.
func ParseInterest(buf enc.Buffer) (*Interest, int, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return nil, 0, err
	}
	if typ != TypeInterest {
		return nil, 0, ErrWrongType
	}
	ret := &Interest{}
	inner := buf[pos : pos+l]
	off := 0
	seenName := false
	for off < len(inner) {
		typ, l, vpos, err := enc.ParseTL(inner[off:])
		if err != nil {
			return nil, 0, err
		}
		val := inner[off+vpos : off+vpos+l]
		switch typ {
		case TypeName:
			name, err := enc.ParseNameValue(val)
			if err != nil {
				return nil, 0, err
			}
			ret.Name = name
			seenName = true
		case TypeSelectors:
			sel, err := parseSelectorsValue(val)
			if err != nil {
				return nil, 0, err
			}
			ret.Selectors = sel
		case TypeNonce:
			if len(val) != 4 {
				return nil, 0, enc.ErrFormat{Msg: "Nonce is not 4 octets"}
			}
			ret.Nonce.Set(binary.BigEndian.Uint32(val))
		case TypeInterestLifetime:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, 0, err
			}
			ret.Lifetime.Set(time.Duration(v) * time.Millisecond)
		default:
			// ignore unrecognized fields
		}
		off += vpos + l
	}
	if !seenName {
		return nil, 0, enc.ErrSkipRequired{Name: "Name", TypeNum: TypeName}
	}
	return ret, pos + l, nil
}
