package ndn

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"

	enc "github.com/named-data/repo-go/encoding"
)

// sha256Signer produces DigestSha256 signatures.
type sha256Signer struct{}

func (sha256Signer) Type() SigType {
	return SignatureDigestSha256
}

func (sha256Signer) KeyLocator() enc.Name {
	return nil
}

func (sha256Signer) EstimateSize() uint {
	return 32
}

func (sha256Signer) Sign(covered enc.Wire) ([]byte, error) {
	h := sha256.New()
	for _, buf := range covered {
		h.Write(buf)
	}
	return h.Sum(nil), nil
}

// NewSha256Signer creates a signer that uses DigestSha256.
func NewSha256Signer() Signer {
	return sha256Signer{}
}

// ValidateSha256 checks if the signature is valid for the covered data.
func ValidateSha256(sigCovered enc.Wire, sig Signature) bool {
	if sig.Type != SignatureDigestSha256 {
		return false
	}
	h := sha256.New()
	for _, buf := range sigCovered {
		h.Write(buf)
	}
	return bytes.Equal(h.Sum(nil), sig.Value)
}

// ed25519Signer signs packets with an Ed25519 key.
type ed25519Signer struct {
	name enc.Name
	key  ed25519.PrivateKey
}

func (s *ed25519Signer) Type() SigType {
	return SignatureEd25519
}

func (s *ed25519Signer) KeyLocator() enc.Name {
	return s.name
}

func (s *ed25519Signer) EstimateSize() uint {
	return ed25519.SignatureSize
}

func (s *ed25519Signer) Sign(covered enc.Wire) ([]byte, error) {
	return ed25519.Sign(s.key, covered.Join()), nil
}

func (s *ed25519Signer) Public() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(s.key.Public())
}

// NewEd25519Signer creates a signer using an Ed25519 key.
func NewEd25519Signer(name enc.Name, key ed25519.PrivateKey) Signer {
	return &ed25519Signer{name, key}
}

// ValidateEd25519 checks an Ed25519 signature against a public key.
func ValidateEd25519(sigCovered enc.Wire, sig Signature, pub ed25519.PublicKey) bool {
	if sig.Type != SignatureEd25519 || len(sig.Value) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, sigCovered.Join(), sig.Value)
}
