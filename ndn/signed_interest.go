package ndn

import (
	enc "github.com/named-data/repo-go/encoding"
)

// Signed command interests carry four extra name components:
// timestamp, nonce, a SignatureInfo block and a SignatureValue block.
const signedInterestComponents = 4

// SignedInterest is the parsed view of a signed command interest name.
type SignedInterest struct {
	// Prefix is the name without the four signing components.
	Prefix enc.Name
	// Timestamp is the signing time in milliseconds since the epoch.
	Timestamp uint64
	// Signature holds the parsed SignatureInfo and SignatureValue.
	Signature Signature
	// Covered is the wire region covered by the signature.
	Covered []byte
}

// SignCommandName appends the signing components to a command name.
func SignCommandName(name enc.Name, signer Signer, timer Timer) (enc.Name, error) {
	ts := enc.Nat(timer.Now().UnixMilli()).Bytes()
	signed := name.Append(
		enc.NewBytesComponent(enc.TypeGenericNameComponent, ts),
		enc.NewBytesComponent(enc.TypeGenericNameComponent, timer.Nonce()),
	)

	info := Signature{Type: signer.Type(), KeyLocator: signer.KeyLocator()}
	signed = signed.Append(enc.NewBytesComponent(
		enc.TypeGenericNameComponent, info.encodeInfo(nil)))

	covered := signed.BytesInner()
	sig, err := signer.Sign(enc.Wire{covered})
	if err != nil {
		return nil, err
	}
	sigBlock := enc.AppendBlock(nil, TypeSignatureValue, sig)
	return signed.Append(enc.NewBytesComponent(enc.TypeGenericNameComponent, sigBlock)), nil
}

// ParseSignedName extracts the signing components of a command name.
func ParseSignedName(name enc.Name) (*SignedInterest, error) {
	if len(name) < signedInterestComponents {
		return nil, ErrSecurity
	}
	ret := &SignedInterest{
		Prefix: name.Prefix(len(name) - signedInterestComponents),
	}

	ts, err := enc.ParseNat(name.At(-4).Val)
	if err != nil {
		return nil, err
	}
	ret.Timestamp = uint64(ts)

	// SignatureInfo block carried in a component value
	infoBuf := enc.Buffer(name.At(-2).Val)
	typ, l, pos, err := enc.ParseTL(infoBuf)
	if err != nil {
		return nil, err
	}
	if typ != TypeSignatureInfo {
		return nil, enc.ErrUnexpectedType{Name: "SignatureInfo", Expected: TypeSignatureInfo, Got: typ}
	}
	if err := ret.Signature.parseInfoValue(infoBuf[pos : pos+l]); err != nil {
		return nil, err
	}

	// SignatureValue block carried in the last component
	sigBuf := enc.Buffer(name.At(-1).Val)
	typ, l, pos, err = enc.ParseTL(sigBuf)
	if err != nil {
		return nil, err
	}
	if typ != TypeSignatureValue {
		return nil, enc.ErrUnexpectedType{Name: "SignatureValue", Expected: TypeSignatureValue, Got: typ}
	}
	ret.Signature.Value = sigBuf[pos : pos+l]

	ret.Covered = name.Prefix(len(name) - 1).BytesInner()
	return ret, nil
}
