package repo

import (
	"crypto/ed25519"
	"crypto/x509"
	"fmt"
	"os"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
)

// Validator authorizes command interests and checks fetched data
// against the repository's signing policy.
type Validator interface {
	String() string
	// ValidateCommand checks a signed command interest. On success the
	// callback receives the signer identity.
	ValidateCommand(interest *ndn.Interest, cb func(ok bool, signer string))
	// ValidateData checks a fetched data packet.
	ValidateData(data *ndn.Data, cb func(ok bool))
}

// acceptAllValidator accepts everything. It still requires command
// interests to carry well-formed signing components.
type acceptAllValidator struct{}

func NewAcceptAllValidator() Validator {
	return acceptAllValidator{}
}

func (acceptAllValidator) String() string {
	return "accept-all-validator"
}

func (acceptAllValidator) ValidateCommand(interest *ndn.Interest, cb func(bool, string)) {
	signed, err := ndn.ParseSignedName(interest.Name)
	if err != nil {
		cb(false, "")
		return
	}
	cb(true, signerIdentity(signed.Signature))
}

func (acceptAllValidator) ValidateData(data *ndn.Data, cb func(bool)) {
	cb(true)
}

// fixedSignerValidator requires Ed25519 signatures by one known key.
type fixedSignerValidator struct {
	pub ed25519.PublicKey
}

// NewFixedSignerValidator loads a PKIX Ed25519 public key from a file.
func NewFixedSignerValidator(keyFile string) (Validator, error) {
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%s does not hold an Ed25519 public key", keyFile)
	}
	return &fixedSignerValidator{pub: pub}, nil
}

func (*fixedSignerValidator) String() string {
	return "fixed-signer-validator"
}

func (v *fixedSignerValidator) ValidateCommand(interest *ndn.Interest, cb func(bool, string)) {
	signed, err := ndn.ParseSignedName(interest.Name)
	if err != nil {
		cb(false, "")
		return
	}
	if !ndn.ValidateEd25519(enc.Wire{signed.Covered}, signed.Signature, v.pub) {
		cb(false, "")
		return
	}
	cb(true, signerIdentity(signed.Signature))
}

func (v *fixedSignerValidator) ValidateData(data *ndn.Data, cb func(bool)) {
	cb(ndn.ValidateEd25519(enc.Wire{data.SigCovered()}, data.Signature, v.pub))
}

// signerIdentity derives the identity tag reported for a command.
func signerIdentity(sig ndn.Signature) string {
	if sig.KeyLocator != nil {
		return sig.KeyLocator.String()
	}
	return "*"
}
