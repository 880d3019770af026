package codec

import (
	"bytes"
	"reflect"
	"runtime"
	"sync"

	"go.oxrpc.dev/ox/rpc"
)

// proxy is the decoded side of a transmitted callable: a reference to an
// identifier registered in the peer's registry. Calling the func value built
// by makeFunc encodes the call's arguments and sends an invocation record
// carrying proxy.id.
//
// A proxy must be released exactly once: either explicitly, by the caller,
// or implicitly when every copy of the func value it backs becomes
// unreachable. releaseToken carries the one-shot release so that it, not the
// proxy struct itself, is what the returned closure keeps alive: ownership
// is shared by value across copies, and the release fires once the last
// copy goes away.
type proxy struct {
	conn  *rpc.Connection
	id    uint64
	token *releaseToken
}

type releaseToken struct {
	once sync.Once
	conn *rpc.Connection
	id   uint64
}

func (t *releaseToken) release() {
	t.once.Do(func() {
		t.conn.SendRelease(t.id)
	})
}

// newProxy constructs a proxy for identifier id on conn and arms a finalizer
// that releases it if it is ever garbage collected without an explicit
// Release call. The finalizer is armed on the token, not on the proxy or the
// closure built from it, so it fires only once every reachable copy of the
// func value is gone.
func newProxy(conn *rpc.Connection, id uint64) *proxy {
	token := &releaseToken{conn: conn, id: id}
	runtime.SetFinalizer(token, func(t *releaseToken) { t.release() })
	return &proxy{conn: conn, id: id, token: token}
}

// makeFunc returns a reflect.Value of type t whose Call encodes its
// arguments and sends an invocation record for p.id. The closure captures
// p.token (not p itself), so every copy of the returned func value shares
// the same release token: copying a Go func value copies a reference to the
// same underlying closure, not the captured environment, so "every copy"
// of the callable really does share one token.
func (p *proxy) makeFunc(t reflect.Type) reflect.Value {
	conn, id, token := p.conn, p.id, p.token
	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		var buf bytes.Buffer
		enc := NewEncoder(&buf, conn)
		for _, a := range args {
			if err := enc.encodeValue(a); err != nil {
				return make([]reflect.Value, t.NumOut())
			}
		}
		conn.SendInvocation(id, buf.Bytes())
		_ = token // kept reachable by this closure's environment
		return make([]reflect.Value, t.NumOut())
	})
}

// Proxy wraps a decoded callable reference with an explicit, deterministic
// Release, for callers that want to drop a capability without waiting on the
// garbage collector. NewProxy and Func give access to this path when a plain
// Decode into a func value (which releases only via finalization) is not
// precise enough.
type Proxy struct{ p *proxy }

// NewProxy decodes a remote reference to a callable from d, returning both
// the reference and a handle to release it explicitly. Call Func with the
// desired func type to obtain a callable value.
func NewProxy(d *Decoder) (Proxy, error) {
	var id uint64
	if err := readFixed(d.r, &id); err != nil {
		return Proxy{}, err
	}
	return Proxy{p: newProxy(d.conn, id)}, nil
}

// Func returns the callable as a reflect.Value of the requested type.
func (p Proxy) Func(t reflect.Type) reflect.Value { return p.p.makeFunc(t) }

// Release sends the release record immediately. It is idempotent and safe
// to call concurrently with the finalizer or with further calls through the
// func value returned by Func.
func (p Proxy) Release() { p.p.token.release() }
