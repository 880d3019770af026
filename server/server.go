// Package server is the typed acceptance façade: it listens on a port,
// accepts connections, registers the user-provided handler as each
// connection's root callback (identifier 0) before performing the
// server-side handshake, and runs the receive loop.
package server

import (
	"context"
	"net"

	"go.oxrpc.dev/ox/codec"
	"go.oxrpc.dev/ox/internal/sockopt"
	"go.oxrpc.dev/ox/rpc"
)

// DefaultAddr listens on the dual-stack any-address at the default port.
const DefaultAddr = ":21872"

// Logger is the subset of *logging.Logger that Server uses to report
// per-connection lifecycle events. Passing nil (the default) silences them;
// cmd/oxserver passes internal/oxlog's logger, which satisfies this
// interface without server importing github.com/op/go-logging itself.
type Logger interface {
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Server accepts connections and dispatches each to a handler.
type Server struct {
	ln  net.Listener
	log Logger
}

// Listen opens a TCP listener at addr with SO_REUSEADDR set, so a restarted
// server can rebind immediately.
func Listen(ctx context.Context, addr string) (*Server, error) {
	lc := net.ListenConfig{Control: sockopt.Control}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }

// SetLogger installs the logger used to report per-connection handshake
// failures and error-sink events. It must be called before Serve; Serve
// itself performs no synchronization around it.
func (s *Server) SetLogger(log Logger) { s.log = log }

// Serve accepts connections in a loop until the listener is closed, running
// each on its own goroutine: register handler as the root callback, perform
// the server handshake, then run the receive loop. handler must be a func of
// arity n and no return, matching whatever signature clients are expected to
// call with. Serve blocks; it returns only when Accept fails, with that
// (never nil) error, e.g. after Close.
func (s *Server) Serve(handler any) error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(nc, handler)
	}
}

func (s *Server) handle(nc net.Conn, handler any) {
	remote := nc.RemoteAddr()
	c := rpc.New(nc, func(err error) {
		if s.log != nil {
			s.log.Warningf("connection from %s failed: %v", remote, err)
		}
	})
	if _, err := codec.Bind(c, handler); err != nil {
		if s.log != nil {
			s.log.Errorf("connection from %s: binding root handler: %v", remote, err)
		}
		c.Close()
		return
	}
	if err := c.HandshakeServer(); err != nil {
		if s.log != nil {
			s.log.Warningf("connection from %s: handshake failed: %v", remote, err)
		}
		return
	}
	c.Serve()
}
