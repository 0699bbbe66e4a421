//go:build !unix

package repo

import "syscall"

func bulkInsertListenerControl(network, address string, c syscall.RawConn) error {
	return nil
}
