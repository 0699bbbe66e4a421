package storage

import (
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/named-data/repo-go/ndn"
)

var badgerDataPrefix = []byte("d/")
var badgerMetaPrefix = []byte("m/")
var badgerSeqKey = []byte("seq")

// BadgerStorage keeps packets in a badger key-value store, under a
// data key and a metadata key per row.
type BadgerStorage struct {
	db  *badger.DB
	seq *badger.Sequence
}

func (s *BadgerStorage) String() string {
	return "badger-storage"
}

func NewBadgerStorage(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence(badgerSeqKey, 128)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BadgerStorage{db: db, seq: seq}, nil
}

func (s *BadgerStorage) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func badgerRowKey(prefix []byte, id int64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(id))
	return key
}

func (s *BadgerStorage) Insert(data *ndn.Data) (int64, error) {
	wire, err := data.Wire()
	if err != nil {
		return -1, err
	}
	fullName, err := data.FullName()
	if err != nil {
		return -1, err
	}

	next, err := s.seq.Next()
	if err != nil {
		return -1, err
	}
	id := int64(next) + 1 // row ids start at 1

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(badgerRowKey(badgerDataPrefix, id), wire); err != nil {
			return err
		}
		return txn.Set(badgerRowKey(badgerMetaPrefix, id),
			metaValue(fullName, data.KeyLocatorHash()))
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *BadgerStorage) Erase(id int64) (bool, error) {
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerRowKey(badgerDataPrefix, id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		if err := txn.Delete(badgerRowKey(badgerDataPrefix, id)); err != nil {
			return err
		}
		return txn.Delete(badgerRowKey(badgerMetaPrefix, id))
	})
	return found, err
}

func (s *BadgerStorage) Read(id int64) (*ndn.Data, error) {
	var wire []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerRowKey(badgerDataPrefix, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		wire, err = item.ValueCopy(nil)
		return err
	})
	if err != nil || wire == nil {
		return nil, err
	}
	data, _, err := ndn.ParseData(wire)
	return data, err
}

func (s *BadgerStorage) Enumerate(f func(ItemMeta) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(badgerMetaPrefix); it.ValidForPrefix(badgerMetaPrefix); it.Next() {
			item := it.Item()
			id := int64(binary.BigEndian.Uint64(item.Key()[len(badgerMetaPrefix):]))
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			meta, err := parseMetaValue(id, val)
			if err != nil {
				return err
			}
			if err := f(meta); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStorage) Size() (int64, error) {
	n := int64(0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(badgerMetaPrefix); it.ValidForPrefix(badgerMetaPrefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
