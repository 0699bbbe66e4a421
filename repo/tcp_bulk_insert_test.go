package repo_test

import (
	"net"
	"testing"
	"time"

	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/types/optional"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func newBulkFixture(t *testing.T) (*fixture, *repo.TcpBulkInsertHandle) {
	f := newFixture(t, 1000)
	h := repo.NewTcpBulkInsertHandle(f.engine, f.facade)
	require.NoError(t, h.Listen("127.0.0.1", "0"))
	t.Cleanup(h.Stop)
	return f, h
}

func TestBulkInsert(t *testing.T) {
	f, h := newBulkFixture(t)

	conn := tu.NoErr(net.Dial("tcp", h.Addr().String()))
	defer conn.Close()

	// two packets back to back, the second split across writes
	first := tu.NoErr(f.makeSegment("/bulk", 0, optional.None[uint64]()).Wire())
	second := tu.NoErr(f.makeSegment("/bulk", 1, optional.None[uint64]()).Wire())

	tu.NoErr(conn.Write(first))
	tu.NoErr(conn.Write(second[:5]))
	time.Sleep(50 * time.Millisecond)
	tu.NoErr(conn.Write(second[5:]))
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, int64(2), f.facade.Size())
}

func TestBulkInsertSkipsDuplicatesAndGarbage(t *testing.T) {
	f, h := newBulkFixture(t)

	conn := tu.NoErr(net.Dial("tcp", h.Addr().String()))
	defer conn.Close()

	wire := tu.NoErr(f.makeSegment("/dup", 0, optional.None[uint64]()).Wire())

	// the duplicate and the non-Data element are skipped quietly
	tu.NoErr(conn.Write(wire))
	tu.NoErr(conn.Write(wire))
	tu.NoErr(conn.Write([]byte{0x63, 0x02, 0x01, 0x00})) // unrelated TLV
	tu.NoErr(conn.Write(wire))
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, int64(1), f.facade.Size())
}

func TestBulkInsertFramingError(t *testing.T) {
	f, h := newBulkFixture(t)

	conn := tu.NoErr(net.Dial("tcp", h.Addr().String()))
	defer conn.Close()

	// a full buffer that never yields one complete element is malformed
	garbage := make([]byte, 8800)
	for i := range garbage {
		garbage[i] = 0xfd
	}
	tu.NoErr(conn.Write(garbage))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	require.Error(t, err) // connection closed by the repository

	require.Equal(t, int64(0), f.facade.Size())
}
