package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
)

// SqliteStorage keeps packets in a single sqlite table.
type SqliteStorage struct {
	db   *sql.DB
	path string
}

func (s *SqliteStorage) String() string {
	return "sqlite-storage"
}

// NewSqliteStorage opens (or creates) the database under dir.
func NewSqliteStorage(dir string) (*SqliteStorage, error) {
	path := "ndn_repo.db"
	if dir != "" {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("folder %s does not exist and cannot be created: %w", dir, err)
			}
		}
		path = filepath.Join(dir, "ndn_repo.db")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("database file open failure: %w", err)
	}
	// The engine is driven from one goroutine.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS NDN_REPO (
			id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			name BLOB UNIQUE,
			data BLOB,
			keylocatorHash BLOB);`,
		`PRAGMA synchronous = OFF;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("database initialization failure: %w", err)
		}
	}

	return &SqliteStorage{db: db, path: path}, nil
}

func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) Insert(data *ndn.Data) (int64, error) {
	wire, err := data.Wire()
	if err != nil {
		return -1, err
	}
	fullName, err := data.FullName()
	if err != nil {
		return -1, err
	}

	res, err := s.db.Exec(
		"INSERT INTO NDN_REPO (name, data, keylocatorHash) VALUES (?, ?, ?)",
		fullName.Bytes(), wire, data.KeyLocatorHash())
	if err != nil {
		return -1, err
	}
	return res.LastInsertId()
}

func (s *SqliteStorage) Erase(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM NDN_REPO WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SqliteStorage) Read(id int64) (*ndn.Data, error) {
	var wire []byte
	err := s.db.QueryRow("SELECT data FROM NDN_REPO WHERE id = ?", id).Scan(&wire)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, _, err := ndn.ParseData(wire)
	return data, err
}

func (s *SqliteStorage) Enumerate(f func(ItemMeta) error) error {
	rows, err := s.db.Query("SELECT id, name, keylocatorHash FROM NDN_REPO")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name, hash []byte
		if err := rows.Scan(&id, &name, &hash); err != nil {
			return err
		}
		fullName, _, err := enc.ParseName(name)
		if err != nil {
			return err
		}
		if err := f(ItemMeta{Id: id, FullName: fullName, KeyLocatorHash: hash}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SqliteStorage) Size() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM NDN_REPO").Scan(&n)
	return n, err
}
