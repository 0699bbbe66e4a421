package storage

import (
	"bytes"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
)

// IndexEntry relates a stored packet's full name to its storage row.
type IndexEntry struct {
	FullName       enc.Name
	KeyLocatorHash []byte
	Id             int64
}

// Index is the ordered in-memory map over all stored full names.
// Lookups answer Interest selector queries in logarithmic time.
type Index struct {
	maxPackets int64
	list       *skiplist
}

func NewIndex(maxPackets int64) *Index {
	return &Index{
		maxPackets: maxPackets,
		list:       newSkiplist(time.Now().UnixNano()),
	}
}

func (x *Index) Size() int64 {
	return int64(x.list.Len())
}

func (x *Index) IsFull() bool {
	return x.Size() >= x.maxPackets
}

// InsertData indexes a data packet under its full name.
func (x *Index) InsertData(data *ndn.Data, id int64) (bool, error) {
	fullName, err := data.FullName()
	if err != nil {
		return false, err
	}
	return x.Insert(fullName, id, data.KeyLocatorHash())
}

// Insert indexes a full name directly; used when enumerating the
// storage engine at startup.
func (x *Index) Insert(fullName enc.Name, id int64, keyLocatorHash []byte) (bool, error) {
	if x.IsFull() {
		return false, ErrIndexFull
	}
	return x.list.Insert(IndexEntry{
		FullName:       fullName,
		KeyLocatorHash: keyLocatorHash,
		Id:             id,
	}), nil
}

// Erase drops the entry with the given full name.
func (x *Index) Erase(fullName enc.Name) bool {
	return x.list.Erase(fullName)
}

// HasData reports whether the packet's full name is indexed.
func (x *Index) HasData(data *ndn.Data) bool {
	fullName, err := data.FullName()
	if err != nil {
		return false
	}
	return x.Has(fullName)
}

func (x *Index) Has(fullName enc.Name) bool {
	return x.list.Find(fullName) != nil
}

// FindName returns the first entry whose full name has name as prefix.
func (x *Index) FindName(name enc.Name) (IndexEntry, bool) {
	n := x.list.LowerBound(name)
	if n == nil || !name.IsPrefixOf(n.entry.FullName) {
		return IndexEntry{}, false
	}
	return n.entry, true
}

// FindInterest returns an entry satisfying the interest's name and
// selectors, honoring the child selector preference.
func (x *Index) FindInterest(interest *ndn.Interest) (IndexEntry, bool) {
	start := x.list.LowerBound(interest.Name)
	if start == nil {
		return IndexEntry{}, false
	}
	var hash []byte
	if interest.Selectors.PublisherPublicKeyLocator != nil {
		hash = ndn.KeyLocatorHash(interest.Selectors.PublisherPublicKeyLocator)
	}

	if interest.Selectors.ChildSelector.GetOr(ndn.ChildSelectorLeftmost) == ndn.ChildSelectorLeftmost {
		return x.selectLeftmost(interest, hash, start)
	}
	return x.selectRightmost(interest, hash, start)
}

func matchesSimpleSelectors(interest *ndn.Interest, hash []byte, entry IndexEntry) bool {
	if !interest.CanSelect(entry.FullName) {
		return false
	}
	if hash != nil && !bytes.Equal(entry.KeyLocatorHash, hash) {
		return false
	}
	return true
}

func (x *Index) selectLeftmost(interest *ndn.Interest, hash []byte, start *skiplistNode) (IndexEntry, bool) {
	for it := start; it != nil; it = it.Next() {
		if !interest.Name.IsPrefixOf(it.entry.FullName) {
			return IndexEntry{}, false
		}
		if matchesSimpleSelectors(interest, hash, it.entry) {
			return it.entry, true
		}
	}
	return IndexEntry{}, false
}

// selectRightmost narrows down the rightmost satisfying entry by
// repeatedly jumping to the start of the last child subtree.
func (x *Index) selectRightmost(interest *ndn.Interest, hash []byte, boundary *skiplistNode) (IndexEntry, bool) {
	if !interest.Name.IsPrefixOf(boundary.entry.FullName) {
		return IndexEntry{}, false
	}

	// last = first entry past the whole prefix subtree
	var last *skiplistNode
	if len(interest.Name) > 0 {
		last = x.list.LowerBound(interest.Name.Successor())
	}

	for {
		var prev *skiplistNode
		if last == nil {
			prev = x.list.Back()
		} else {
			prev = x.list.Pred(last.entry.FullName)
		}
		if prev == boundary {
			if matchesSimpleSelectors(interest, hash, prev.entry) {
				return prev.entry, true
			}
			return IndexEntry{}, false
		}

		first := x.list.LowerBound(prev.entry.FullName.Prefix(len(interest.Name) + 1))
		for it := first; it != last; it = it.Next() {
			if matchesSimpleSelectors(interest, hash, it.entry) {
				return it.entry, true
			}
		}
		last = first
	}
}
