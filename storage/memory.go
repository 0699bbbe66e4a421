package storage

import (
	"github.com/named-data/repo-go/ndn"
)

// MemoryStorage is a map-backed engine used by tests and as a
// throwaway backend.
type MemoryStorage struct {
	rows   map[int64]memoryRow
	nextId int64
}

type memoryRow struct {
	wire []byte
	meta ItemMeta
}

func (s *MemoryStorage) String() string {
	return "memory-storage"
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rows:   make(map[int64]memoryRow),
		nextId: 1,
	}
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) Insert(data *ndn.Data) (int64, error) {
	wire, err := data.Wire()
	if err != nil {
		return -1, err
	}
	fullName, err := data.FullName()
	if err != nil {
		return -1, err
	}

	id := s.nextId
	s.nextId++
	s.rows[id] = memoryRow{
		wire: wire,
		meta: ItemMeta{Id: id, FullName: fullName, KeyLocatorHash: data.KeyLocatorHash()},
	}
	return id, nil
}

func (s *MemoryStorage) Erase(id int64) (bool, error) {
	if _, ok := s.rows[id]; !ok {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

func (s *MemoryStorage) Read(id int64) (*ndn.Data, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	data, _, err := ndn.ParseData(row.wire)
	return data, err
}

func (s *MemoryStorage) Enumerate(f func(ItemMeta) error) error {
	for _, row := range s.rows {
		if err := f(row.meta); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage) Size() (int64, error) {
	return int64(len(s.rows)), nil
}
