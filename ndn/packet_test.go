package ndn_test

import (
	"crypto/sha256"
	"testing"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/types/optional"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestDataSignParseRoundTrip(t *testing.T) {
	tu.SetT(t)

	data := &ndn.Data{
		Name:    tu.NoErr(enc.NameFromStr("/a/b/c")),
		Content: []byte{0x03, 0x01, 0x04, 0x01, 0x05, 0x09, 0x02, 0x06},
	}
	data.MetaInfo.FreshnessPeriod.Set(time.Second)
	data.MetaInfo.FinalBlockId.Set(enc.NewSegmentComponent(9))
	require.NoError(t, data.SignWith(ndn.NewSha256Signer()))

	wire := tu.NoErr(data.Wire())
	parsed, consumed, err := ndn.ParseData(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	require.True(t, data.Name.Equal(parsed.Name))
	require.Equal(t, data.Content, parsed.Content)
	require.Equal(t, time.Second, parsed.MetaInfo.FreshnessPeriod.Unwrap())
	require.Equal(t, uint64(9), tu.NoErr(parsed.MetaInfo.FinalBlockId.Unwrap().SegmentNumber()))
	require.Equal(t, ndn.SignatureDigestSha256, parsed.Signature.Type)
	require.True(t, ndn.ValidateSha256(enc.Wire{parsed.SigCovered()}, parsed.Signature))
}

func TestDataFullName(t *testing.T) {
	tu.SetT(t)

	data := &ndn.Data{Name: tu.NoErr(enc.NameFromStr("/a/b"))}
	require.NoError(t, data.SignWith(ndn.NewSha256Signer()))

	wire := tu.NoErr(data.Wire())
	digest := sha256.Sum256(wire)

	fullName := tu.NoErr(data.FullName())
	require.Len(t, fullName, 3)
	require.True(t, fullName.IsFullName())
	require.Equal(t, digest[:], fullName.At(-1).Val)

	// a parsed copy derives the identical full name
	parsed, _, err := ndn.ParseData(wire)
	require.NoError(t, err)
	require.True(t, fullName.Equal(tu.NoErr(parsed.FullName())))
}

func TestDataRejectsWrongOuterType(t *testing.T) {
	tu.SetT(t)

	interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr("/a")))
	interest.Nonce.Set(1)
	wire := tu.NoErr(interest.Encode())

	_, _, err := ndn.ParseData(wire)
	require.ErrorIs(t, err, ndn.ErrWrongType)
	_, _, err = ndn.ParseInterest([]byte{0x06, 0x00})
	require.ErrorIs(t, err, ndn.ErrWrongType)
}

func TestInterestRoundTrip(t *testing.T) {
	tu.SetT(t)

	interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr("/w")))
	interest.Lifetime = optional.Some(2 * time.Second)
	interest.Nonce.Set(0xdeadbeef)
	interest.Selectors.MinSuffixComponents.Set(2)
	interest.Selectors.MaxSuffixComponents.Set(4)
	interest.Selectors.ChildSelector.Set(ndn.ChildSelectorRightmost)
	interest.Selectors.MustBeFresh = true
	interest.Selectors.PublisherPublicKeyLocator = tu.NoErr(enc.NameFromStr("/keys/alice"))
	exclude := &ndn.Exclude{}
	exclude.ExcludeBefore(enc.NewGenericComponent("m"))
	interest.Selectors.Exclude = exclude

	wire := tu.NoErr(interest.Encode())
	parsed, consumed, err := ndn.ParseInterest(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	require.True(t, interest.Name.Equal(parsed.Name))
	require.Equal(t, uint32(0xdeadbeef), parsed.Nonce.Unwrap())
	require.Equal(t, 2*time.Second, parsed.Lifetime.Unwrap())
	require.Equal(t, uint64(2), parsed.Selectors.MinSuffixComponents.Unwrap())
	require.Equal(t, uint64(4), parsed.Selectors.MaxSuffixComponents.Unwrap())
	require.Equal(t, ndn.ChildSelectorRightmost, parsed.Selectors.ChildSelector.Unwrap())
	require.True(t, parsed.Selectors.MustBeFresh)
	require.True(t, parsed.Selectors.PublisherPublicKeyLocator.Equal(
		interest.Selectors.PublisherPublicKeyLocator))
	require.True(t, parsed.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("a")))
	require.False(t, parsed.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("z")))
}

func TestSelectorsPreserveUnknownFields(t *testing.T) {
	tu.SetT(t)

	// Selectors block with MustBeFresh and an unknown TLV 222
	inner := enc.AppendBlock(nil, 18, nil)
	inner = enc.AppendBlock(inner, 222, []byte{0xab, 0xcd})
	block := enc.AppendBlock(nil, 9, inner)

	parsed := tu.NoErr(ndn.ParseSelectors(block))
	require.True(t, parsed.MustBeFresh)
	require.False(t, parsed.Empty())

	reencoded := parsed.Encode()
	require.Equal(t, block, reencoded)
}

func TestExclude(t *testing.T) {
	tu.SetT(t)

	comp := func(s string) enc.Component { return enc.NewGenericComponent(s) }

	ex := &ndn.Exclude{}
	require.True(t, ex.Empty())

	ex.ExcludeOne(comp("d"))
	require.True(t, ex.IsExcluded(comp("d")))
	require.False(t, ex.IsExcluded(comp("c")))
	require.False(t, ex.IsExcluded(comp("e")))

	ex.ExcludeBefore(comp("b"))
	require.True(t, ex.IsExcluded(comp("a")))
	require.True(t, ex.IsExcluded(comp("b")))
	require.False(t, ex.IsExcluded(comp("c")))
	require.True(t, ex.IsExcluded(comp("d")))

	// extending past an existing point absorbs it
	ex.ExcludeBefore(comp("e"))
	require.True(t, ex.IsExcluded(comp("c")))
	require.True(t, ex.IsExcluded(comp("e")))
	require.False(t, ex.IsExcluded(comp("f")))
}

func TestExcludeRefinementLoop(t *testing.T) {
	tu.SetT(t)

	// the watch pattern: exclude each returned child in turn
	ex := &ndn.Exclude{}
	for _, s := range []string{"1", "2", "3"} {
		ex.ExcludeBefore(enc.NewGenericComponent(s))
	}
	require.True(t, ex.IsExcluded(enc.NewGenericComponent("1")))
	require.True(t, ex.IsExcluded(enc.NewGenericComponent("3")))
	require.False(t, ex.IsExcluded(enc.NewGenericComponent("4")))
}

func TestSignedCommandName(t *testing.T) {
	tu.SetT(t)

	timer := testTimer{}
	signer := ndn.NewSha256Signer()
	name := tu.NoErr(enc.NameFromStr("/example/repo/insert"))

	signed := tu.NoErr(ndn.SignCommandName(name, signer, timer))
	require.Len(t, signed, len(name)+4)

	parsed := tu.NoErr(ndn.ParseSignedName(signed))
	require.True(t, name.Equal(parsed.Prefix))
	require.Equal(t, ndn.SignatureDigestSha256, parsed.Signature.Type)
	require.True(t, ndn.ValidateSha256(enc.Wire{parsed.Covered}, parsed.Signature))
}

type testTimer struct{}

func (testTimer) Now() time.Time                                  { return time.Unix(1000, 0) }
func (testTimer) Sleep(time.Duration)                             {}
func (testTimer) Schedule(time.Duration, func()) func() error     { return func() error { return nil } }
func (testTimer) Nonce() []byte                                   { return []byte{1, 2, 3, 4, 5, 6, 7, 8} }
