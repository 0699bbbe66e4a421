// Package storage holds the persistent side of the repository: the
// pluggable storage engines, the in-memory name index, and the façade
// joining the two.
package storage

import (
	"errors"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
)

// ItemMeta describes one stored packet during enumeration.
type ItemMeta struct {
	Id             int64
	FullName       enc.Name
	KeyLocatorHash []byte
}

// Storage is an append-only table of data packets keyed by row id.
type Storage interface {
	// Insert appends a packet and returns its row id.
	Insert(data *ndn.Data) (int64, error)
	// Erase removes a row; reports whether a row was removed.
	Erase(id int64) (bool, error)
	// Read returns the packet stored in a row, or nil.
	Read(id int64) (*ndn.Data, error)
	// Enumerate iterates the whole table, yielding item metadata.
	Enumerate(f func(ItemMeta) error) error
	// Size returns the number of stored packets.
	Size() (int64, error)
	Close() error
}

// ErrIndexFull is returned when the index reached the packet cap.
var ErrIndexFull = errors.New("the index is full. Cannot insert any data")

// ErrAlreadyPresent is returned when inserting a packet whose full
// name is already indexed.
var ErrAlreadyPresent = errors.New("the entry is already present in the index")

// metaValue encodes the enumeration metadata stored next to a packet:
// the full name block followed by the raw key locator hash.
func metaValue(fullName enc.Name, keyLocatorHash []byte) []byte {
	buf := fullName.Bytes()
	return append(buf, keyLocatorHash...)
}

func parseMetaValue(id int64, buf []byte) (ItemMeta, error) {
	fullName, pos, err := enc.ParseName(buf)
	if err != nil {
		return ItemMeta{}, err
	}
	var hash []byte
	if len(buf) > pos {
		hash = buf[pos:]
	}
	return ItemMeta{Id: id, FullName: fullName, KeyLocatorHash: hash}, nil
}
