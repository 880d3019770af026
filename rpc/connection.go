// Package rpc implements the connection-level protocol engine: framing,
// the callback registry, the ordered write pipeline, the asynchronous
// read-dispatch loop, and the handshake. The typed client/server façades
// are built on top of it.
package rpc

import (
	"bufio"
	"io"
	"net"
	"sync"

	"go.oxrpc.dev/ox/wire"
)

// writeQueueSize bounds how many records may be enqueued ahead of the writer
// goroutine before SendInvocation/SendRelease block. Ordering only requires
// FIFO delivery, not a particular bound; a modest bound keeps a stalled peer
// from growing memory without limit while still giving handlers room to
// enqueue a burst of replies.
const writeQueueSize = 64

// writeJob is one outbound record awaiting transmission.
type writeJob struct {
	id      uint64
	payload []byte // nil for a release record
	release bool
}

// Connection owns one duplex byte stream and everything attached to it: the
// callback registry, the identifier counter, the ordered execution context
// for outbound writes, and the error sink invoked at most once on
// unrecoverable failure.
//
// A Connection is created with New, handshaken with HandshakeClient or
// HandshakeServer, and then driven with Serve (which blocks, dispatching
// inbound records, until the connection dies). Registering handlers and
// sending records are both safe to call from any goroutine, including from
// within a handler invoked by Serve itself.
type Connection struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	reg *registry

	mu     sync.Mutex
	closed bool
	err    error

	errSink  func(error)
	sinkOnce sync.Once

	writes chan writeJob
	done   chan struct{}

	wg sync.WaitGroup
}

// New constructs a Connection over conn. errSink, if non-nil, is invoked
// exactly once, with the error that killed the connection, when the
// connection transitions to Dead. New also starts the writer goroutine that
// backs the ordered execution context for outbound records; callers must
// still call Serve to start inbound dispatch.
func New(conn net.Conn, errSink func(error)) *Connection {
	c := &Connection{
		conn:    conn,
		r:       bufio.NewReaderSize(conn, 4096),
		w:       bufio.NewWriterSize(conn, 4096),
		reg:     newRegistry(),
		errSink: errSink,
		writes:  make(chan writeJob, writeQueueSize),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.writeLoop()
	return c
}

// HandlerRegistered reports whether id still has a handler registered
// locally, i.e. it has not yet been released or has not yet been released by
// the peer.
func (c *Connection) HandlerRegistered(id uint64) bool {
	return c.reg.lookup(id) != nil
}

// RegistryLen reports the number of handlers currently registered locally.
// Tests use it to confirm that every transient proxy created while servicing
// a call has, in aggregate, released the identifiers it was holding.
func (c *Connection) RegistryLen() int {
	return c.reg.len()
}

// RegisterLocal inserts handler into the registry under a freshly allocated
// identifier and returns it, along with whether the registration actually
// took: once the connection has failed and its registry cleared, ok is
// false and handler is discarded rather than registered. Callers that need
// the identifier to be live (e.g. encoding a callable as a call argument)
// must check ok and fail out rather than send an id no peer can reach. It
// never blocks on I/O and is safe for concurrent use.
func (c *Connection) RegisterLocal(handler Handler) (id uint64, ok bool) {
	return c.reg.register(handler)
}

// SendInvocation enqueues one invocation record (id, payload) for
// transmission. Records enqueued by this connection are delivered to the
// peer in enqueue order.
func (c *Connection) SendInvocation(id uint64, payload []byte) {
	c.enqueue(writeJob{id: id, payload: payload})
}

// SendRelease enqueues one release record (id, ReleaseSize) instructing the
// peer to forget id. The peer tolerates releases for unknown ids.
func (c *Connection) SendRelease(id uint64) {
	c.enqueue(writeJob{id: id, release: true})
}

func (c *Connection) enqueue(job writeJob) {
	select {
	case c.writes <- job:
	case <-c.done:
		// Connection is dead; a pending write is silently dropped on shutdown.
	}
}

func (c *Connection) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case job := <-c.writes:
			if err := c.writeRecord(job); err != nil {
				c.fail(err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) writeRecord(job writeJob) error {
	if err := wire.WriteUvarint(c.w, job.id); err != nil {
		return err
	}
	if job.release {
		if err := wire.WriteUvarint(c.w, wire.ReleaseSize); err != nil {
			return err
		}
	} else if err := wire.WriteBytes(c.w, job.payload); err != nil {
		return err
	}
	return c.w.Flush()
}

// Serve runs the perpetual read loop: deframe one record, dispatch it, and
// repeat, until a transport or framing error occurs. It blocks until the
// connection dies, at which point the error sink has already fired.
// Serve must be called at most once per Connection.
func (c *Connection) Serve() {
	for {
		id, err := wire.ReadUvarint(c.r)
		if err != nil {
			c.fail(err)
			return
		}
		size, err := wire.ReadUvarint(c.r)
		if err != nil {
			c.fail(err)
			return
		}
		if size == wire.ReleaseSize {
			c.reg.release(id)
			continue
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(c.r, payload); err != nil {
			c.fail(err)
			return
		}
		if h := c.reg.lookup(id); h != nil {
			dispatch(h, payload)
		}
		// else: peer may have raced a release; silently discard.
	}
}

// dispatch invokes h with payload, recovering any panic so that a
// misbehaving remote closure cannot kill the connection.
func dispatch(h Handler, payload []byte) {
	defer func() { recover() }()
	h(payload)
}

// fail latches err as the connection's terminal state, closes the underlying
// socket, and invokes the error sink exactly once. It is idempotent: only the
// first call has any effect.
func (c *Connection) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	c.mu.Unlock()

	close(c.done)
	c.conn.Close()
	c.reg.clear()
	c.sinkOnce.Do(func() {
		if c.errSink != nil {
			c.errSink(err)
		}
	})
}

// Close tears down the connection locally. It is safe to call more than
// once and safe to call after the connection has already failed.
func (c *Connection) Close() error {
	c.fail(ErrClosed)
	return nil
}

// Err returns the error that killed the connection, or nil if it is still
// Live.
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Closed reports whether the connection has transitioned to Dead.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
