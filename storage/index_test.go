package storage_test

import (
	"encoding/binary"
	"strings"
	"testing"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

// makeData builds a signed packet whose content encodes the given id,
// so equal names still hash to distinct packets.
func makeData(t *testing.T, name string, id uint64) *ndn.Data {
	content := make([]byte, 8)
	binary.BigEndian.PutUint64(content, id)
	data := &ndn.Data{
		Name:    tu.NoErr(enc.NameFromStr(name)),
		Content: content,
	}
	require.NoError(t, data.SignWith(ndn.NewSha256Signer()))
	return data
}

type findFixture struct {
	t     *testing.T
	index *storage.Index
}

func newFindFixture(t *testing.T) *findFixture {
	tu.SetT(t)
	return &findFixture{t: t, index: storage.NewIndex(100)}
}

func (f *findFixture) insert(id int64, name string) {
	inserted := tu.NoErr(f.index.InsertData(makeData(f.t, name, uint64(id)), id))
	require.True(f.t, inserted)
}

func (f *findFixture) find(interest *ndn.Interest) int64 {
	entry, ok := f.index.FindInterest(interest)
	if !ok {
		return 0
	}
	return entry.Id
}

func interestFor(t *testing.T, name string) *ndn.Interest {
	return ndn.NewInterest(tu.NoErr(enc.NameFromStr(name)))
}

func rightmost(i *ndn.Interest) *ndn.Interest {
	i.Selectors.ChildSelector.Set(ndn.ChildSelectorRightmost)
	return i
}

func TestFindEmptyDataName(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/")
	require.Equal(t, int64(1), f.find(interestFor(t, "/")))
}

func TestFindEmptyInterestName(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A")
	require.Equal(t, int64(1), f.find(interestFor(t, "/")))
}

func TestFindLeftmost(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A")
	f.insert(2, "/B/p/1")
	f.insert(3, "/B/p/2")
	f.insert(4, "/B/q/1")
	f.insert(5, "/B/q/2")
	f.insert(6, "/C")

	require.Equal(t, int64(2), f.find(interestFor(t, "/B")))
}

func TestFindRightmost(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A")
	f.insert(2, "/B/p/1")
	f.insert(3, "/B/p/2")
	f.insert(4, "/B/q/1")
	f.insert(5, "/B/q/2")
	f.insert(6, "/C")

	require.Equal(t, int64(4), f.find(rightmost(interestFor(t, "/B"))))
}

func TestFindRightmostAmongSiblings(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A/B")
	f.insert(2, "/A/C")

	// the rightmost child of /A, not an implicit-digest extension of /A
	require.Equal(t, int64(2), f.find(rightmost(interestFor(t, "/A"))))
}

func TestFindLeftmostExactName1(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/")
	f.insert(2, "/A/B")
	f.insert(3, "/A/C")
	f.insert(4, "/A")
	f.insert(5, "/D")

	// Data 4 is not first: its full name is /A/<32-octet digest>,
	// which orders after the one-octet children of /A.
	require.Equal(t, int64(2), f.find(interestFor(t, "/A")))
}

func TestFindLeftmostExactName33(t *testing.T) {
	f := newFindFixture(t)
	long := strings.Repeat("B", 33)
	f.insert(1, "/")
	f.insert(2, "/A")
	f.insert(3, "/A/"+long)
	f.insert(4, "/A/"+strings.Repeat("C", 33))
	f.insert(5, "/D")

	// the 32-octet digest orders before the 33-octet children
	require.Equal(t, int64(2), f.find(interestFor(t, "/A")))
}

func TestFindMinSuffixComponents(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A/1/2/3/4")
	f.insert(2, "/B/1/2/3")
	f.insert(3, "/C/1/2")
	f.insert(4, "/D/1")
	f.insert(5, "/E")
	f.insert(6, "/")

	expect := map[uint64]int64{0: 6, 1: 6, 2: 5, 3: 4, 4: 3, 5: 2, 6: 1, 7: 0}
	for minSuffix, id := range expect {
		interest := rightmost(interestFor(t, "/"))
		interest.Selectors.MinSuffixComponents.Set(minSuffix)
		require.Equal(t, id, f.find(interest), "minSuffixComponents=%d", minSuffix)
	}
}

func TestFindMaxSuffixComponents(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A/1/2/3/4")
	f.insert(2, "/B/1/2/3")
	f.insert(3, "/C/1/2")
	f.insert(4, "/D/1")
	f.insert(5, "/E")
	f.insert(6, "/")

	expect := map[uint64]int64{0: 0, 1: 6, 2: 5, 3: 4, 4: 3, 5: 2, 6: 1}
	for maxSuffix, id := range expect {
		interest := interestFor(t, "/")
		interest.Selectors.MaxSuffixComponents.Set(maxSuffix)
		require.Equal(t, id, f.find(interest), "maxSuffixComponents=%d", maxSuffix)
	}
}

func TestFindExclude(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/A/B")
	f.insert(2, "/A/C")
	f.insert(3, "/A/D")

	exclude := &ndn.Exclude{}
	exclude.ExcludeBefore(enc.NewGenericComponent("C"))
	interest := interestFor(t, "/A")
	interest.Selectors.Exclude = exclude
	require.Equal(t, int64(3), f.find(interest))
}

func TestFindPublisherKeyHash(t *testing.T) {
	f := newFindFixture(t)
	keyName := tu.NoErr(enc.NameFromStr("/keys/alice"))

	signed := &ndn.Data{Name: tu.NoErr(enc.NameFromStr("/A/1")), Content: []byte{1}}
	require.NoError(t, signed.SignWith(ndn.NewEd25519Signer(keyName, testEd25519Key(t))))
	inserted := tu.NoErr(f.index.InsertData(signed, 1))
	require.True(t, inserted)
	f.insert(2, "/A/2")

	interest := interestFor(t, "/A")
	interest.Selectors.PublisherPublicKeyLocator = keyName
	require.Equal(t, int64(1), f.find(interest))

	interest.Selectors.PublisherPublicKeyLocator = tu.NoErr(enc.NameFromStr("/keys/bob"))
	require.Equal(t, int64(0), f.find(interest))
}

func TestFindByName(t *testing.T) {
	f := newFindFixture(t)
	f.insert(1, "/x/y/1")
	f.insert(2, "/x/y/2")

	entry, ok := f.index.FindName(tu.NoErr(enc.NameFromStr("/x/y")))
	require.True(t, ok)
	require.Equal(t, int64(1), entry.Id)

	_, ok = f.index.FindName(tu.NoErr(enc.NameFromStr("/x/z")))
	require.False(t, ok)
}

func TestIndexCapacity(t *testing.T) {
	tu.SetT(t)
	index := storage.NewIndex(2)

	tu.NoErr(index.InsertData(makeData(t, "/a", 1), 1))
	tu.NoErr(index.InsertData(makeData(t, "/b", 2), 2))
	_, err := index.InsertData(makeData(t, "/c", 3), 3)
	require.ErrorIs(t, err, storage.ErrIndexFull)
	require.Equal(t, int64(2), index.Size())
}

func TestIndexEraseHas(t *testing.T) {
	tu.SetT(t)
	index := storage.NewIndex(10)

	data := makeData(t, "/a/b", 1)
	tu.NoErr(index.InsertData(data, 1))
	require.True(t, index.HasData(data))

	// duplicate full names are refused
	again := tu.NoErr(index.InsertData(data, 2))
	require.False(t, again)
	require.Equal(t, int64(1), index.Size())

	fullName := tu.NoErr(data.FullName())
	require.True(t, index.Erase(fullName))
	require.False(t, index.Erase(fullName))
	require.False(t, index.HasData(data))
	require.Equal(t, int64(0), index.Size())
}
