package repo

import (
	"context"
	"net"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
)

// TcpBulkInsertHandle ingests concatenated Data TLVs from TCP peers.
// There is no framing beyond the TLV length and no reply channel;
// decode errors and duplicates are logged and skipped.
type TcpBulkInsertHandle struct {
	engine   *engine.Engine
	storage  *storage.RepoStorage
	listener net.Listener
}

func NewTcpBulkInsertHandle(e *engine.Engine, s *storage.RepoStorage) *TcpBulkInsertHandle {
	return &TcpBulkInsertHandle{
		engine:  e,
		storage: s,
	}
}

func (h *TcpBulkInsertHandle) String() string {
	return "tcp-bulk-insert"
}

// Listen binds the acceptor and starts serving connections.
func (h *TcpBulkInsertHandle) Listen(host string, port string) error {
	lc := net.ListenConfig{Control: bulkInsertListenerControl}
	listener, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return err
	}
	h.listener = listener
	log.Info(h, "Start listening", "addr", listener.Addr())

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return // listener closed
			}
			log.Info(h, "New connection", "remote", conn.RemoteAddr())
			go h.handleClient(conn)
		}
	}()
	return nil
}

// Stop closes the acceptor. Established connections drain on their own.
func (h *TcpBulkInsertHandle) Stop() {
	if h.listener != nil {
		h.listener.Close()
	}
}

// Addr returns the bound acceptor address.
func (h *TcpBulkInsertHandle) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

func (h *TcpBulkInsertHandle) handleClient(conn net.Conn) {
	defer conn.Close()

	buffer := make([]byte, ndn.MaxNdnPacketSize)
	size := 0

	for {
		n, err := conn.Read(buffer[size:])
		size += n
		if err != nil {
			return
		}

		offset := 0
		for offset < size {
			block, consumed := completeElement(buffer[offset:size])
			if consumed == 0 {
				break
			}
			h.ingest(block)
			offset += consumed
		}

		if offset == 0 && size == len(buffer) {
			// a full buffer without one complete element is malformed
			log.Warn(h, "Buffer exhausted without a complete element - closing",
				"remote", conn.RemoteAddr())
			return
		}

		// shift the residual bytes to the front
		if offset > 0 {
			copy(buffer, buffer[offset:size])
			size -= offset
		}
	}
}

// completeElement returns the leading whole TLV element of buf, or a
// zero length when more bytes are needed.
func completeElement(buf []byte) ([]byte, int) {
	_, typLen := enc.ParseTLNum(buf)
	if typLen == 0 {
		return nil, 0
	}
	l, lenLen := enc.ParseTLNum(buf[typLen:])
	if lenLen == 0 {
		return nil, 0
	}
	total := typLen + lenLen + int(l)
	if total > len(buf) {
		return nil, 0
	}
	return buf[:total], total
}

// ingest decodes one element and hands Data packets to the storage
// façade on the engine loop.
func (h *TcpBulkInsertHandle) ingest(block []byte) {
	typ, _ := enc.ParseTLNum(block)
	if typ != ndn.TypeData {
		return
	}
	data, _, err := ndn.ParseData(block)
	if err != nil {
		log.Warn(h, "Error decoding received Data packet", "err", err)
		return
	}

	done := make(chan struct{})
	h.engine.Post(func() {
		defer close(done)
		if err := h.storage.InsertData(data); err != nil {
			if storage.IsDuplicate(err) {
				log.Debug(h, "Duplicate data skipped", "name", data.Name)
			} else {
				log.Warn(h, "Failed to inject data", "name", data.Name, "err", err)
			}
			return
		}
		log.Debug(h, "Successfully injected", "name", data.Name)
	})
	<-done
}
