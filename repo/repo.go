package repo

import (
	"fmt"

	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
)

// Repo wires the engine, the storage façade and every handle into one
// running repository instance.
type Repo struct {
	config *Config

	engine *engine.Engine
	store  storage.Storage
	facade *storage.RepoStorage

	validator Validator
	signer    ndn.Signer

	readHandle   *ReadHandle
	writeHandle  *WriteHandle
	watchHandle  *WatchHandle
	deleteHandle *DeleteHandle
	tcpBulk      *TcpBulkInsertHandle
}

func (r *Repo) String() string {
	return "repo"
}

// NewRepo builds a repository from a parsed configuration.
func NewRepo(config *Config, e *engine.Engine) (*Repo, error) {
	r := &Repo{
		config: config,
		engine: e,
		signer: ndn.NewSha256Signer(),
	}

	var err error
	switch config.Repo.Storage.Method {
	case "sqlite":
		r.store, err = storage.NewSqliteStorage(config.Repo.Storage.Path)
	case "badger":
		r.store, err = storage.NewBadgerStorage(config.Repo.Storage.Path)
	case "memory":
		r.store = storage.NewMemoryStorage()
	default:
		err = fmt.Errorf("unsupported storage method %q", config.Repo.Storage.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	switch config.Repo.Validator.Type {
	case "fixed-signer":
		r.validator, err = NewFixedSignerValidator(config.Repo.Validator.KeyFile)
		if err != nil {
			r.store.Close()
			return nil, fmt.Errorf("failed to load validator key: %w", err)
		}
	default:
		r.validator = NewAcceptAllValidator()
	}

	r.facade = storage.NewRepoStorage(config.Repo.Storage.MaxPackets, r.store)

	autoListen := len(config.DataPrefixes()) == 0
	r.readHandle = NewReadHandle(e, r.facade, config.Repo.RegistrationSubset, autoListen)
	r.writeHandle = NewWriteHandle(e, r.facade, r.signer, r.validator)
	r.watchHandle = NewWatchHandle(e, r.facade, r.signer, r.validator)
	r.deleteHandle = NewDeleteHandle(e, r.facade, r.signer, r.validator)
	r.tcpBulk = NewTcpBulkInsertHandle(e, r.facade)

	return r, nil
}

// Start rebuilds the index, registers every prefix and opens the bulk
// insert acceptor. Prefix registration failure is fatal.
func (r *Repo) Start() error {
	start := r.engine.Timer().Now()
	if err := r.facade.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info(r, "Storage initialized",
		"packets", r.facade.Size(),
		"cost", r.engine.Timer().Now().Sub(start))

	for _, prefix := range r.config.DataPrefixes() {
		if err := r.readHandle.Listen(prefix); err != nil {
			return fmt.Errorf("data prefix registration failed: %w", err)
		}
	}

	for _, prefix := range r.config.CommandPrefixes() {
		if err := r.writeHandle.Listen(prefix); err != nil {
			return fmt.Errorf("insert prefix registration failed: %w", err)
		}
		if err := r.watchHandle.Listen(prefix); err != nil {
			return fmt.Errorf("watch prefix registration failed: %w", err)
		}
		if err := r.deleteHandle.Listen(prefix); err != nil {
			return fmt.Errorf("delete prefix registration failed: %w", err)
		}
		if err := r.engine.RegisterRoute(prefix); err != nil {
			return fmt.Errorf("command prefix registration failed: %w", err)
		}
	}

	if host := r.config.Repo.TcpBulkInsert.Host; host != "" {
		port := fmt.Sprint(r.config.Repo.TcpBulkInsert.Port)
		if err := r.tcpBulk.Listen(host, port); err != nil {
			return fmt.Errorf("tcp bulk insert listen failed: %w", err)
		}
	}

	log.Info(r, "Repository is running")
	return nil
}

// Stop closes the acceptor and the storage engine.
func (r *Repo) Stop() {
	r.tcpBulk.Stop()
	if err := r.store.Close(); err != nil {
		log.Error(r, "Failed to close storage", "err", err)
	}
}

// Storage exposes the façade, mainly for tests and tools.
func (r *Repo) Storage() *storage.RepoStorage {
	return r.facade
}
