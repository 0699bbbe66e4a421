package encoding_test

import (
	"testing"

	enc "github.com/named-data/repo-go/encoding"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestTLNumEncoding(t *testing.T) {
	tu.SetT(t)

	cases := map[uint64][]byte{
		0x01:        {0x01},
		0xfc:        {0xfc},
		0xfd:        {0xfd, 0x00, 0xfd},
		0xffff:      {0xfd, 0xff, 0xff},
		0x10000:     {0xfe, 0x00, 0x01, 0x00, 0x00},
		0x100000000: {0xff, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00},
	}
	for v, wire := range cases {
		buf := make([]byte, enc.TLNum(v).EncodingLength())
		enc.TLNum(v).EncodeInto(buf)
		require.Equal(t, wire, buf)

		parsed, pos := enc.ParseTLNum(wire)
		require.Equal(t, v, uint64(parsed))
		require.Equal(t, len(wire), pos)
	}
}

func TestNatShortestForm(t *testing.T) {
	tu.SetT(t)

	require.Equal(t, []byte{0x00}, enc.Nat(0).Bytes())
	require.Equal(t, []byte{0xff}, enc.Nat(255).Bytes())
	require.Equal(t, []byte{0x01, 0x00}, enc.Nat(256).Bytes())
	require.Equal(t, 4, enc.Nat(1<<16).EncodingLength())
	require.Equal(t, 8, enc.Nat(1<<32).EncodingLength())

	v := tu.NoErr(enc.ParseNat([]byte{0x01, 0x00}))
	require.Equal(t, enc.Nat(256), v)
	tu.Err(enc.ParseNat([]byte{0x01, 0x02, 0x03}))
}

func TestComponentCompare(t *testing.T) {
	tu.SetT(t)

	a := enc.NewGenericComponent("A")
	b := enc.NewGenericComponent("B")
	long := enc.NewGenericComponent("AA")

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a.Clone()))

	// shorter values order first regardless of content
	require.Equal(t, -1, b.Compare(long))
	require.Equal(t, 1, long.Compare(a))

	// a 32-octet digest orders among plain 32-octet components
	digest := enc.NewDigestComponent(make([]byte, 32))
	comp33 := enc.NewBytesComponent(enc.TypeGenericNameComponent, make([]byte, 33))
	require.Equal(t, 1, digest.Compare(b))
	require.Equal(t, -1, digest.Compare(comp33))
}

func TestComponentSuccessor(t *testing.T) {
	tu.SetT(t)

	c := enc.NewGenericComponent("A")
	require.Equal(t, "B", c.Successor().String())

	wrap := enc.NewBytesComponent(enc.TypeGenericNameComponent, []byte{0xff, 0xff})
	succ := wrap.Successor()
	require.Equal(t, []byte{0x00, 0x00, 0x00}, succ.Val)
	require.Equal(t, 1, succ.Compare(wrap))
}

func TestNameCanonicalOrder(t *testing.T) {
	tu.SetT(t)

	a := tu.NoErr(enc.NameFromStr("/A"))
	ab := tu.NoErr(enc.NameFromStr("/A/B"))
	ac := tu.NoErr(enc.NameFromStr("/A/C"))
	b := tu.NoErr(enc.NameFromStr("/B"))

	require.Equal(t, -1, a.Compare(ab))
	require.Equal(t, -1, ab.Compare(ac))
	require.Equal(t, -1, ac.Compare(b))
	require.True(t, a.IsPrefixOf(ab))
	require.False(t, ab.IsPrefixOf(a))
	require.True(t, a.IsPrefixOf(a))

	// a full name with digest orders after short children of the prefix
	digest := a.Append(enc.NewDigestComponent(make([]byte, 32)))
	require.Equal(t, 1, digest.Compare(ab))
	require.Equal(t, -1, digest.Compare(b))
}

func TestNameSuccessorBoundsPrefixSubtree(t *testing.T) {
	tu.SetT(t)

	n := tu.NoErr(enc.NameFromStr("/A/B"))
	succ := n.Successor()
	require.Equal(t, "/A/C", succ.String())

	// every extension of n orders inside [n, successor)
	ext := n.Append(enc.NewGenericComponent("zzz"))
	require.Equal(t, -1, n.Compare(ext))
	require.Equal(t, -1, ext.Compare(succ))
}

func TestNameUriRoundTrip(t *testing.T) {
	tu.SetT(t)

	for _, uri := range []string{
		"/",
		"/a/b/c",
		"/hello%20world/%00%01",
		"/sha256digest=0000000000000000000000000000000000000000000000000000000000000000",
	} {
		name := tu.NoErr(enc.NameFromStr(uri))
		require.Equal(t, uri, name.String())
	}

	// ndn: scheme prefix is accepted
	name := tu.NoErr(enc.NameFromStr("ndn:/A/B"))
	require.Equal(t, "/A/B", name.String())
}

func TestNameTlvRoundTrip(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/a/b/c")).WithSegment(7)
	parsed := tu.NoErr(enc.NameFromBytes(name.Bytes()))
	require.True(t, name.Equal(parsed))
	require.Equal(t, name.TlvStr(), parsed.TlvStr())
	require.Equal(t, name.Hash(), parsed.Hash())
}

func TestSegmentComponents(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/f")).WithSegment(300)
	last := name.At(-1)
	require.True(t, last.IsSegment())
	require.Equal(t, uint64(300), tu.NoErr(last.SegmentNumber()))

	// replacing keeps a single trailing segment
	name = name.WithSegment(2)
	require.Len(t, name, 2)
	require.Equal(t, uint64(2), tu.NoErr(name.At(-1).SegmentNumber()))

	version := tu.NoErr(enc.NameFromStr("/f")).WithVersion(42)
	require.True(t, version.At(-1).IsVersion())
	require.False(t, version.At(-1).IsSegment())
}

func TestNamePrefixAt(t *testing.T) {
	tu.SetT(t)

	name := tu.NoErr(enc.NameFromStr("/a/b/c/d"))
	require.Equal(t, "/a/b", name.Prefix(2).String())
	require.Equal(t, "/a/b/c", name.Prefix(-1).String())
	require.Equal(t, "d", name.At(-1).String())
	require.Equal(t, "a", name.At(0).String())
	require.Equal(t, enc.Component{}, name.At(9))
}
