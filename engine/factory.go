package engine

import (
	"fmt"
	"net/url"

	"github.com/named-data/repo-go/face"
	"github.com/named-data/repo-go/ndn"
)

// NewBasicEngine creates an engine on the given face with a real timer.
func NewBasicEngine(f ndn.Face) *Engine {
	return NewEngine(f, NewTimer())
}

// NewUnixFace creates a face over a Unix stream socket.
func NewUnixFace(addr string) ndn.Face {
	return face.NewStreamFace("unix", addr, true)
}

// FaceFromUri creates a face from a transport URI such as
// unix:///run/nfd/nfd.sock, tcp://localhost:6363 or ws://host:9696.
func FaceFromUri(uri string) (ndn.Face, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transport URI %s: %w", uri, err)
	}

	switch u.Scheme {
	case "unix":
		return NewUnixFace(u.Path), nil
	case "tcp", "tcp4", "tcp6":
		return face.NewStreamFace(u.Scheme, u.Host, false), nil
	case "ws", "wss":
		return face.NewWebSocketFace(uri, false), nil
	}
	return nil, fmt.Errorf("unsupported transport URI: %s", uri)
}
