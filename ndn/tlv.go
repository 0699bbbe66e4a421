package ndn

import enc "github.com/named-data/repo-go/encoding"

// TLV type assignments. These are fixed for wire compatibility and
// must not be reassigned.
const (
	TypeInterest                  enc.TLNum = 5
	TypeData                      enc.TLNum = 6
	TypeName                      enc.TLNum = 7
	TypeSelectors                 enc.TLNum = 9
	TypeNonce                     enc.TLNum = 10
	TypeInterestLifetime          enc.TLNum = 12
	TypeMinSuffixComponents       enc.TLNum = 13
	TypeMaxSuffixComponents       enc.TLNum = 14
	TypePublisherPublicKeyLocator enc.TLNum = 15
	TypeExclude                   enc.TLNum = 16
	TypeChildSelector             enc.TLNum = 17
	TypeMustBeFresh               enc.TLNum = 18
	TypeAny                       enc.TLNum = 19
	TypeMetaInfo                  enc.TLNum = 20
	TypeContent                   enc.TLNum = 21
	TypeSignatureInfo             enc.TLNum = 22
	TypeSignatureValue            enc.TLNum = 23
	TypeContentType               enc.TLNum = 24
	TypeFreshnessPeriod           enc.TLNum = 25
	TypeFinalBlockId              enc.TLNum = 26
	TypeSignatureType             enc.TLNum = 27
	TypeKeyLocator                enc.TLNum = 28
	TypeKeyDigest                 enc.TLNum = 29
)

// ChildSelector values.
const (
	ChildSelectorLeftmost  uint64 = 0
	ChildSelectorRightmost uint64 = 1
)

// MaxNdnPacketSize is the largest packet accepted on any transport.
const MaxNdnPacketSize = 8800
