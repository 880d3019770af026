package rpc

import (
	"errors"
	"fmt"
)

// ErrSignatureMismatch is returned by HandshakeClient/HandshakeServer when the
// peer's three-byte signature does not match ours.
var ErrSignatureMismatch = errors.New("rpc: handshake signature mismatch")

// ErrClosed is the error latched (and passed to the error sink) when a
// connection is torn down locally via Close rather than by a transport or
// framing failure.
var ErrClosed = errors.New("rpc: connection closed")

// wrapErr decorates *err with ctx, preserving the wrapped cause, and is a
// no-op when *err is nil. Call it with defer at the top of an exported method.
func wrapErr(err *error, ctx string) {
	if *err != nil {
		*err = fmt.Errorf("%s: %w", ctx, *err)
	}
}
