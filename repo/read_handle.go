package repo

import (
	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
)

// ReadHandle serves stored packets for plain interests. When no data
// prefix is configured it auto-registers a prefix of every inserted
// data name, reference counted so deletions unregister again.
type ReadHandle struct {
	engine  *engine.Engine
	storage *storage.RepoStorage

	// prefixSubsetLength is the component count of auto-registered
	// prefixes; zero or less registers the data name without digest.
	prefixSubsetLength int
	autoListen         bool

	registered map[string]*registeredDataPrefix
}

type registeredDataPrefix struct {
	prefix   enc.Name
	useCount int
}

func NewReadHandle(e *engine.Engine, s *storage.RepoStorage, prefixSubsetLength int, autoListen bool) *ReadHandle {
	h := &ReadHandle{
		engine:             e,
		storage:            s,
		prefixSubsetLength: prefixSubsetLength,
		autoListen:         autoListen,
		registered:         make(map[string]*registeredDataPrefix),
	}
	if autoListen {
		s.AfterInsert(h.onDataInserted)
		s.AfterDelete(h.onDataDeleted)
	}
	return h
}

func (h *ReadHandle) String() string {
	return "read-handle"
}

// Listen registers a configured data prefix.
func (h *ReadHandle) Listen(prefix enc.Name) error {
	if err := h.engine.AttachHandler(prefix, h.onInterest); err != nil {
		return err
	}
	return h.engine.RegisterRoute(prefix)
}

func (h *ReadHandle) onInterest(args ndn.InterestHandlerArgs) {
	data, err := h.storage.ReadData(args.Interest)
	if err != nil {
		log.Error(h, "Failed to read data", "name", args.Interest.Name, "err", err)
		return
	}
	if data == nil {
		// no reply; the consumer will time out
		return
	}
	wire, _ := data.Wire()
	if err := args.Reply(wire); err != nil {
		log.Error(h, "Failed to send data", "name", data.Name, "err", err)
	}
}

// registrationPrefix derives the auto-registered prefix of a stored
// data full name.
func (h *ReadHandle) registrationPrefix(name enc.Name) enc.Name {
	if h.prefixSubsetLength > 0 && h.prefixSubsetLength < len(name) {
		return name.Prefix(h.prefixSubsetLength)
	}
	if name.IsFullName() {
		return name.Prefix(-1)
	}
	return name
}

func (h *ReadHandle) onDataInserted(name enc.Name) {
	prefix := h.registrationPrefix(name)
	key := prefix.TlvStr()
	if entry := h.registered[key]; entry != nil {
		entry.useCount++
		return
	}
	h.registered[key] = &registeredDataPrefix{prefix: prefix, useCount: 1}

	if err := h.engine.AttachHandler(prefix, h.onInterest); err != nil {
		log.Warn(h, "Prefix already handled", "prefix", prefix, "err", err)
	}
	// route registration answers on the engine loop; keep off it
	go func() {
		if err := h.engine.RegisterRoute(prefix); err != nil {
			log.Error(h, "Auto registration failed", "prefix", prefix, "err", err)
		}
	}()
}

func (h *ReadHandle) onDataDeleted(name enc.Name) {
	prefix := h.registrationPrefix(name)
	key := prefix.TlvStr()
	entry := h.registered[key]
	if entry == nil {
		return
	}
	entry.useCount--
	if entry.useCount > 0 {
		return
	}
	delete(h.registered, key)

	if err := h.engine.DetachHandler(prefix); err != nil {
		log.Warn(h, "Prefix was not handled", "prefix", prefix, "err", err)
	}
	go func() {
		if err := h.engine.UnregisterRoute(prefix); err != nil {
			log.Error(h, "Auto unregistration failed", "prefix", prefix, "err", err)
		}
	}()
}

// RegisteredPrefixes exposes the auto-registration table.
func (h *ReadHandle) RegisteredPrefixes() map[string]int {
	ret := make(map[string]int, len(h.registered))
	for _, e := range h.registered {
		ret[e.prefix.String()] = e.useCount
	}
	return ret
}
