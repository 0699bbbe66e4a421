package ndn

import (
	"crypto/sha256"
	"slices"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/types/optional"
)

type MetaInfo struct {
	ContentType     optional.Optional[uint64]
	FreshnessPeriod optional.Optional[time.Duration]
	FinalBlockId    optional.Optional[enc.Component]
}

type Signature struct {
	Type       SigType
	KeyLocator enc.Name
	Value      []byte
}

// Data is an immutable named packet. Once signed or parsed, the exact
// wire encoding is cached; the full name is derived from that wire.
type Data struct {
	Name      enc.Name
	MetaInfo  MetaInfo
	Content   []byte
	Signature Signature

	wire       []byte
	fullName   enc.Name
	sigCovered []byte
}

func (d *Data) String() string {
	return d.Name.String()
}

func (m MetaInfo) encodeValue(buf []byte) []byte {
	if v, ok := m.ContentType.Get(); ok {
		buf = enc.AppendNatBlock(buf, TypeContentType, v)
	}
	if v, ok := m.FreshnessPeriod.Get(); ok {
		buf = enc.AppendNatBlock(buf, TypeFreshnessPeriod, uint64(v.Milliseconds()))
	}
	if c, ok := m.FinalBlockId.Get(); ok {
		buf = enc.AppendBlock(buf, TypeFinalBlockId, c.Bytes())
	}
	return buf
}

func (s Signature) encodeInfo(buf []byte) []byte {
	info := enc.AppendNatBlock(nil, TypeSignatureType, uint64(s.Type))
	if s.KeyLocator != nil {
		info = enc.AppendBlock(info, TypeKeyLocator, s.KeyLocator.Bytes())
	}
	return enc.AppendBlock(buf, TypeSignatureInfo, info)
}

// signedPortion is the covered wire: Name through SignatureInfo.
func (d *Data) signedPortion() []byte {
	buf := make([]byte, 0, 64+len(d.Content)+d.Name.EncodingLength())
	buf = append(buf, d.Name.Bytes()...)
	buf = enc.AppendBlock(buf, TypeMetaInfo, d.MetaInfo.encodeValue(nil))
	buf = enc.AppendBlock(buf, TypeContent, d.Content)
	buf = d.Signature.encodeInfo(buf)
	return buf
}

// SignWith signs the packet and caches its wire encoding.
func (d *Data) SignWith(signer Signer) error {
	d.Signature.Type = signer.Type()
	d.Signature.KeyLocator = signer.KeyLocator()
	covered := d.signedPortion()
	sig, err := signer.Sign(enc.Wire{covered})
	if err != nil {
		return err
	}
	d.Signature.Value = sig
	inner := enc.AppendBlock(covered, TypeSignatureValue, sig)
	d.wire = enc.AppendBlock(nil, TypeData, inner)
	d.sigCovered = covered
	d.fullName = nil
	return nil
}

// Wire returns the cached wire encoding. The packet must have been
// signed or parsed.
func (d *Data) Wire() ([]byte, error) {
	if d.wire != nil {
		return d.wire, nil
	}
	if d.Signature.Value == nil {
		return nil, ErrInvalidValue{Item: "Signature", Value: nil}
	}
	inner := d.signedPortion()
	d.sigCovered = slices.Clone(inner)
	inner = enc.AppendBlock(inner, TypeSignatureValue, d.Signature.Value)
	d.wire = enc.AppendBlock(nil, TypeData, inner)
	return d.wire, nil
}

// SigCovered returns the wire region covered by the signature.
func (d *Data) SigCovered() []byte {
	return d.sigCovered
}

// FullName returns the data name extended by the implicit digest of
// the wire encoding.
func (d *Data) FullName() (enc.Name, error) {
	if d.fullName != nil {
		return d.fullName, nil
	}
	wire, err := d.Wire()
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(wire)
	d.fullName = d.Name.Append(enc.NewDigestComponent(digest[:]))
	return d.fullName, nil
}

// KeyLocatorHash returns the SHA-256 of the signature's key locator
// block, or nil when the signature carries none.
func (d *Data) KeyLocatorHash() []byte {
	return KeyLocatorHash(d.Signature.KeyLocator)
}

// KeyLocatorHash computes the SHA-256 over a KeyLocator block holding
// the given name. Returns nil for a nil name.
func KeyLocatorHash(name enc.Name) []byte {
	if name == nil {
		return nil
	}
	block := enc.AppendBlock(nil, TypeKeyLocator, name.Bytes())
	digest := sha256.Sum256(block)
	return digest[:]
}

// ParseData parses a whole Data TLV block from the front of buf and
// returns the number of bytes consumed. The wire is copied, so the
// input buffer may be reused.
func ParseData(buf enc.Buffer) (*Data, int, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return nil, 0, err
	}
	if typ != TypeData {
		return nil, 0, ErrWrongType
	}
	total := pos + l
	ret := &Data{wire: slices.Clone(buf[:total])}
	inner := ret.wire[pos:total]
	off := 0
	seenName := false
	seenSigValue := false
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
		case TypeMetaInfo:
			if err := ret.MetaInfo.parseValue(val); err != nil {
				return nil, 0, err
			}
		case TypeContent:
			ret.Content = val
		case TypeSignatureInfo:
			if err := ret.Signature.parseInfoValue(val); err != nil {
				return nil, 0, err
			}
			ret.sigCovered = inner[:off+vpos+l]
		case TypeSignatureValue:
			ret.Signature.Value = val
			seenSigValue = true
		default:
			// ignore unrecognized fields
		}
		off += vpos + l
	}
	if !seenName {
		return nil, 0, enc.ErrSkipRequired{Name: "Name", TypeNum: TypeName}
	}
	if !seenSigValue {
		return nil, 0, enc.ErrSkipRequired{Name: "SignatureValue", TypeNum: TypeSignatureValue}
	}
	return ret, total, nil
}

func (m *MetaInfo) parseValue(buf enc.Buffer) error {
	off := 0
	for off < len(buf) {
		typ, l, pos, err := enc.ParseTL(buf[off:])
		if err != nil {
			return err
		}
		val := buf[off+pos : off+pos+l]
		switch typ {
		case TypeContentType:
			v, err := enc.ParseNat(val)
			if err != nil {
				return err
			}
			m.ContentType.Set(uint64(v))
		case TypeFreshnessPeriod:
			v, err := enc.ParseNat(val)
			if err != nil {
				return err
			}
			m.FreshnessPeriod.Set(time.Duration(v) * time.Millisecond)
		case TypeFinalBlockId:
			c, _, err := enc.ParseComponent(val)
			if err != nil {
				return err
			}
			m.FinalBlockId.Set(c)
		}
		off += pos + l
	}
	return nil
}

func (s *Signature) parseInfoValue(buf enc.Buffer) error {
	s.Type = SignatureNone
	off := 0
	for off < len(buf) {
		typ, l, pos, err := enc.ParseTL(buf[off:])
		if err != nil {
			return err
		}
		val := buf[off+pos : off+pos+l]
		switch typ {
		case TypeSignatureType:
			v, err := enc.ParseNat(val)
			if err != nil {
				return err
			}
			s.Type = SigType(v)
		case TypeKeyLocator:
			name, _, err := enc.ParseName(val)
			if err != nil {
				return err
			}
			s.KeyLocator = name
		}
		off += pos + l
	}
	if s.Type == SignatureNone {
		return enc.ErrSkipRequired{Name: "SignatureType", TypeNum: TypeSignatureType}
	}
	return nil
}
