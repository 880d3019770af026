//go:build windows

package sockopt

import "syscall"

// Control is a no-op on windows: SO_REUSEADDR has different (exclusive,
// security-sensitive) semantics there, so the listener keeps the platform
// default.
func Control(_, _ string, _ syscall.RawConn) error {
	return nil
}
