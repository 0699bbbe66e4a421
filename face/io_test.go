package face_test

import (
	"bytes"
	"io"
	"testing"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/face"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out its payload in fixed-size pieces, simulating a
// stream that fragments TLV elements.
type chunkReader struct {
	payload []byte
	chunk   int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.payload) == 0 {
		return 0, io.EOF
	}
	n := min(r.chunk, len(r.payload), len(p))
	copy(p, r.payload[:n])
	r.payload = r.payload[n:]
	return n, nil
}

func TestReadTlvStream(t *testing.T) {
	tu.SetT(t)

	var payload []byte
	var want [][]byte
	for i := 0; i < 5; i++ {
		element := enc.AppendBlock(nil, 6, bytes.Repeat([]byte{byte(i)}, 100+i))
		payload = append(payload, element...)
		want = append(want, element)
	}

	for _, chunk := range []int{1, 7, 100, len(payload)} {
		var got [][]byte
		err := face.ReadTlvStream(&chunkReader{payload: append([]byte{}, payload...), chunk: chunk},
			func(frame []byte) bool {
				got = append(got, append([]byte{}, frame...))
				return true
			})
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, want, got, "chunk size %d", chunk)
	}
}

func TestReadTlvStreamStops(t *testing.T) {
	tu.SetT(t)

	payload := enc.AppendBlock(nil, 6, []byte{1})
	payload = append(payload, enc.AppendBlock(nil, 6, []byte{2})...)

	count := 0
	err := face.ReadTlvStream(bytes.NewReader(payload), func(frame []byte) bool {
		count++
		return false
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
