// Package client is the typed invocation façade: it resolves a host and
// port, opens one connection, performs the client-side handshake, sends a
// single call to the peer's root handler (identifier 0), and services
// whatever callback traffic that call provokes.
//
// A user call client(a1,…,an) is reduced directly to an n-tuple write to the
// root handler rather than to the wrapped "receiver of a receiver"
// indirection of the originating implementation; the encoder already
// supports heterogeneous tuples directly, which is an equivalent reduction
// (see DESIGN.md).
package client

import (
	"bytes"
	"context"
	"net"

	"go.oxrpc.dev/ox/codec"
	"go.oxrpc.dev/ox/rpc"
)

// DefaultPort is the default port for both ends of the typed façade.
const DefaultPort = "21872"

// Session is one live call: a connection that has completed the client
// handshake, sent its root invocation, and is now servicing callback traffic
// in the background.
type Session struct {
	conn  *rpc.Connection
	errCh chan error
}

// Dial connects to addr (host:port), performs the client handshake, and
// starts the background receive loop. It does not yet send anything; call
// Invoke to transmit the root call.
func Dial(ctx context.Context, addr string) (*Session, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	errCh := make(chan error, 1)
	c := rpc.New(nc, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})
	if err := c.HandshakeClient(); err != nil {
		return nil, err
	}
	go c.Serve()
	return &Session{conn: c, errCh: errCh}, nil
}

// Invoke encodes args as an n-tuple and sends it to the peer's root handler.
// Any callable among args becomes a remote reference the peer can call back
// into this session for as long as the session stays open.
func (s *Session) Invoke(args ...any) error {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, s.conn).EncodeAll(args...); err != nil {
		return err
	}
	s.conn.SendInvocation(0, buf.Bytes())
	return nil
}

// Err returns the error that ended the session, blocking until one is
// available or ctx is done.
func (s *Session) Err(ctx context.Context) error {
	select {
	case err := <-s.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down the session's connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
