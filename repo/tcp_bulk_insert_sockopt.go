//go:build unix

package repo

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// bulkInsertListenerControl applies the acceptor socket options:
// SO_REUSEADDR always, and V6ONLY on IPv6 endpoints.
func bulkInsertListenerControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			return
		}
		if network == "tcp6" {
			sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
