package ndn

import (
	"time"

	enc "github.com/named-data/repo-go/encoding"
)

// SigType is the type of the packet signature.
type SigType int

const (
	SignatureNone            SigType = -1
	SignatureDigestSha256    SigType = 0
	SignatureSha256WithRsa   SigType = 1
	SignatureSha256WithEcdsa SigType = 3
	SignatureHmacWithSha256  SigType = 4
	SignatureEd25519         SigType = 5
)

// Signer signs packets on behalf of an identity.
type Signer interface {
	// Type returns the signature type produced by this signer.
	Type() SigType
	// KeyLocator returns the key name carried in the signature, or nil.
	KeyLocator() enc.Name
	// EstimateSize returns the worst-case signature size in bytes.
	EstimateSize() uint
	// Sign computes the signature over the covered wire.
	Sign(covered enc.Wire) ([]byte, error)
}

// Face is the abstraction of a transport to the forwarder.
type Face interface {
	String() string
	Open() error
	Close() error
	Send(pkt enc.Wire) error
	IsRunning() bool
	IsLocal() bool
	OnPacket(onPkt func(frame []byte))
	OnError(onError func(err error))
	OnUp(onUp func()) (cancel func())
	OnDown(onDown func()) (cancel func())
}

// Timer provides the engine's clock, scheduling and nonce source.
type Timer interface {
	Now() time.Time
	Sleep(d time.Duration)
	// Schedule runs f after d on an arbitrary goroutine and returns a
	// cancel function. Cancelling an already cancelled event errors.
	Schedule(d time.Duration, f func()) func() error
	Nonce() []byte
}

// InterestResult is the outcome of an expressed Interest.
type InterestResult int

const (
	// InterestResultNone is an invalid result.
	InterestResultNone InterestResult = iota
	// InterestResultData means the Interest was satisfied.
	InterestResultData
	// InterestResultTimeout means the Interest timed out.
	InterestResultTimeout
	// InterestResultError means an error happened on our side.
	InterestResultError
)

type ExpressCallbackArgs struct {
	Result InterestResult
	Data   *Data
	Raw    []byte
	Error  error
}

type ExpressCallbackFunc func(args ExpressCallbackArgs)

type InterestHandlerArgs struct {
	Interest *Interest
	Raw      []byte
	Deadline time.Time
	// Reply sends a Data wire back on the incoming face.
	Reply func(dataWire []byte) error
}

type InterestHandler func(args InterestHandlerArgs)
