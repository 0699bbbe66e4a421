package storage

import (
	"errors"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
)

// RepoStorage joins the name index and the storage engine. The two are
// kept consistent: every indexed full name has a live row and vice
// versa.
type RepoStorage struct {
	index   *Index
	storage Storage

	onInsert []func(name enc.Name)
	onDelete []func(name enc.Name)
}

func NewRepoStorage(maxPackets int64, store Storage) *RepoStorage {
	return &RepoStorage{
		index:   NewIndex(maxPackets),
		storage: store,
	}
}

func (s *RepoStorage) String() string {
	return "repo-storage"
}

// Initialize rebuilds the index from the storage engine.
func (s *RepoStorage) Initialize() error {
	return s.storage.Enumerate(func(item ItemMeta) error {
		_, err := s.index.Insert(item.FullName, item.Id, item.KeyLocatorHash)
		return err
	})
}

// AfterInsert subscribes to successful insertions.
func (s *RepoStorage) AfterInsert(f func(name enc.Name)) {
	s.onInsert = append(s.onInsert, f)
}

// AfterDelete subscribes to deletions.
func (s *RepoStorage) AfterDelete(f func(name enc.Name)) {
	s.onDelete = append(s.onDelete, f)
}

// InsertData stores and indexes a packet.
// Returns ErrAlreadyPresent for a known full name and ErrIndexFull at
// the packet cap; the engine row is rolled back in the latter case.
func (s *RepoStorage) InsertData(data *ndn.Data) error {
	if s.index.HasData(data) {
		return ErrAlreadyPresent
	}
	id, err := s.storage.Insert(data)
	if err != nil {
		return err
	}
	if _, err := s.index.InsertData(data, id); err != nil {
		if _, eraseErr := s.storage.Erase(id); eraseErr != nil {
			log.Error(s, "Failed to roll back insert", "id", id, "err", eraseErr)
		}
		return err
	}

	fullName, _ := data.FullName()
	for _, f := range s.onInsert {
		f(fullName)
	}
	return nil
}

// DeleteData removes every packet whose full name extends name.
// Returns the number removed, or -1 when any removal failed.
func (s *RepoStorage) DeleteData(name enc.Name) int64 {
	hasError := false
	count := int64(0)
	for {
		entry, ok := s.index.FindName(name)
		if !ok {
			break
		}
		if s.eraseEntry(entry) {
			count++
		} else {
			hasError = true
		}
	}
	if hasError {
		return -1
	}
	return count
}

// DeleteInterest removes every packet satisfying the interest. The
// child selector is forced to leftmost so the iteration terminates.
func (s *RepoStorage) DeleteInterest(interest *ndn.Interest) int64 {
	del := &ndn.Interest{
		Name:      interest.Name,
		Selectors: interest.Selectors.Clone(),
	}
	del.Selectors.ChildSelector.Set(ndn.ChildSelectorLeftmost)

	hasError := false
	count := int64(0)
	for {
		entry, ok := s.index.FindInterest(del)
		if !ok {
			break
		}
		if s.eraseEntry(entry) {
			count++
		} else {
			hasError = true
		}
	}
	if hasError {
		return -1
	}
	return count
}

func (s *RepoStorage) eraseEntry(entry IndexEntry) bool {
	okDb, err := s.storage.Erase(entry.Id)
	if err != nil {
		log.Error(s, "Storage engine erase failed", "id", entry.Id, "err", err)
		okDb = false
	}
	okIndex := s.index.Erase(entry.FullName)
	if !okIndex {
		// the loop in the callers would never terminate
		panic("[BUG] index entry vanished during deletion")
	}
	if okDb {
		for _, f := range s.onDelete {
			f(entry.FullName)
		}
	}
	return okDb
}

// ReadData returns a packet satisfying the interest, or nil.
func (s *RepoStorage) ReadData(interest *ndn.Interest) (*ndn.Data, error) {
	entry, ok := s.index.FindInterest(interest)
	if !ok {
		return nil, nil
	}
	return s.storage.Read(entry.Id)
}

// HasData reports whether the packet's full name is stored.
func (s *RepoStorage) HasData(data *ndn.Data) bool {
	return s.index.HasData(data)
}

func (s *RepoStorage) Size() int64 {
	return s.index.Size()
}

// IsDuplicate reports whether err marks an insert of known data.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrAlreadyPresent)
}
