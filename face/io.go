package face

import (
	"io"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
)

// ReadTlvStream reads whole TLV elements from a byte stream and feeds
// them to onFrame. Reading stops when onFrame returns false, on EOF, or
// when MaxNdnPacketSize bytes are pending without forming a complete element.
func ReadTlvStream(reader io.Reader, onFrame func([]byte) bool) error {
	recvBuf := make([]byte, ndn.MaxNdnPacketSize*2)
	recvOff := 0
	tlvOff := 0

	for {
		// if no packet is available, shift to beginning
		if tlvOff == recvOff {
			tlvOff = 0
			recvOff = 0
		}

		// read from the stream
		readSize, err := reader.Read(recvBuf[recvOff:])
		recvOff += readSize
		if err != nil {
			return err
		}

		// parse the elements in the buffer
		for {
			_, typLen := enc.ParseTLNum(recvBuf[tlvOff:recvOff])
			if typLen == 0 {
				break
			}
			l, lenLen := enc.ParseTLNum(recvBuf[tlvOff+typLen : recvOff])
			if lenLen == 0 {
				break
			}
			tlvSize := typLen + lenLen + int(l)

			if tlvOff+tlvSize > recvOff {
				// not enough data for a whole element
				break
			}

			if !onFrame(recvBuf[tlvOff : tlvOff+tlvSize]) {
				return nil
			}
			tlvOff += tlvSize
		}

		// stuck beyond any sane packet size
		if recvOff-tlvOff >= len(recvBuf)-ndn.MaxNdnPacketSize {
			return enc.ErrBufferOverflow
		}

		// shift residual bytes to the front
		if tlvOff > 0 {
			copy(recvBuf, recvBuf[tlvOff:recvOff])
			recvOff -= tlvOff
			tlvOff = 0
		}
	}
}
