package ndn

import (
	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/types/optional"
)

// Selectors is the filter bundle carried by an Interest. Fields are
// independently optional; unknown nested blocks found while decoding
// are preserved and re-emitted on encode.
type Selectors struct {
	MinSuffixComponents       optional.Optional[uint64]
	MaxSuffixComponents       optional.Optional[uint64]
	PublisherPublicKeyLocator enc.Name
	Exclude                   *Exclude
	ChildSelector             optional.Optional[uint64]
	MustBeFresh               bool

	unknown []byte
}

func (s *Selectors) Empty() bool {
	return s == nil ||
		(!s.MinSuffixComponents.IsSet() && !s.MaxSuffixComponents.IsSet() &&
			s.PublisherPublicKeyLocator == nil && s.Exclude.Empty() &&
			!s.ChildSelector.IsSet() && !s.MustBeFresh && len(s.unknown) == 0)
}

func (s *Selectors) Clone() Selectors {
	if s == nil {
		return Selectors{}
	}
	ret := *s
	ret.Exclude = s.Exclude.Clone()
	return ret
}

// encodeValue appends the value of the Selectors TLV block.
func (s *Selectors) encodeValue(buf []byte) []byte {
	if v, ok := s.MinSuffixComponents.Get(); ok {
		buf = enc.AppendNatBlock(buf, TypeMinSuffixComponents, v)
	}
	if v, ok := s.MaxSuffixComponents.Get(); ok {
		buf = enc.AppendNatBlock(buf, TypeMaxSuffixComponents, v)
	}
	if s.PublisherPublicKeyLocator != nil {
		buf = enc.AppendBlock(buf, TypePublisherPublicKeyLocator, s.PublisherPublicKeyLocator.Bytes())
	}
	if !s.Exclude.Empty() {
		buf = enc.AppendBlock(buf, TypeExclude, s.Exclude.encodeValue(nil))
	}
	if v, ok := s.ChildSelector.Get(); ok {
		buf = enc.AppendNatBlock(buf, TypeChildSelector, v)
	}
	if s.MustBeFresh {
		buf = enc.AppendBlock(buf, TypeMustBeFresh, nil)
	}
	return append(buf, s.unknown...)
}

// Encode returns the whole Selectors TLV block, or nil when empty.
func (s *Selectors) Encode() []byte {
	if s.Empty() {
		return nil
	}
	return enc.AppendBlock(nil, TypeSelectors, s.encodeValue(nil))
}

// parseSelectorsValue parses the value of a Selectors TLV block.
// Children are accepted in any order.
func parseSelectorsValue(buf enc.Buffer) (Selectors, error) {
	ret := Selectors{}
	off := 0
	for off < len(buf) {
		typ, l, pos, err := enc.ParseTL(buf[off:])
		if err != nil {
			return Selectors{}, err
		}
		val := buf[off+pos : off+pos+l]
		switch typ {
		case TypeMinSuffixComponents:
			v, err := enc.ParseNat(val)
			if err != nil {
				return Selectors{}, err
			}
			ret.MinSuffixComponents.Set(uint64(v))
		case TypeMaxSuffixComponents:
			v, err := enc.ParseNat(val)
			if err != nil {
				return Selectors{}, err
			}
			ret.MaxSuffixComponents.Set(uint64(v))
		case TypePublisherPublicKeyLocator:
			name, _, err := enc.ParseName(val)
			if err != nil {
				return Selectors{}, err
			}
			ret.PublisherPublicKeyLocator = name
		case TypeExclude:
			ex, err := parseExcludeValue(val)
			if err != nil {
				return Selectors{}, err
			}
			ret.Exclude = ex
		case TypeChildSelector:
			v, err := enc.ParseNat(val)
			if err != nil {
				return Selectors{}, err
			}
			ret.ChildSelector.Set(uint64(v))
		case TypeMustBeFresh:
			ret.MustBeFresh = true
		default:
			// preserve for round trips
			ret.unknown = append(ret.unknown, buf[off:off+pos+l]...)
		}
		off += pos + l
	}
	return ret, nil
}

// ParseSelectors parses a whole Selectors TLV block.
func ParseSelectors(buf enc.Buffer) (Selectors, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return Selectors{}, err
	}
	if typ != TypeSelectors {
		return Selectors{}, enc.ErrUnexpectedType{Name: "Selectors", Expected: TypeSelectors, Got: typ}
	}
	return parseSelectorsValue(buf[pos : pos+l])
}
