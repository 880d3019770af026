//go:build !windows

package sockopt

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Control sets SO_REUSEADDR on the listening socket before bind, so a
// restarted server can rebind a port still sitting in TIME_WAIT. Pass it as
// net.ListenConfig.Control.
func Control(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
