package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"go.oxrpc.dev/ox/rpc"
)

// Bind registers fn — a func value of arity n and no return — as a local
// handler on conn and returns the identifier it was assigned, without
// writing that identifier anywhere. It is the building block both for
// encoding a callable (which does write the identifier, to the peer) and for
// a server's root handler, whose identifier is never transmitted because the
// peer already knows to address it as 0 by convention.
func Bind(conn *rpc.Connection, fn any) (uint64, error) {
	rv := reflect.ValueOf(fn)
	t := rv.Type()
	if t.Kind() != reflect.Func {
		return 0, fmt.Errorf("codec: Bind requires a func, got %s", t)
	}
	return bindFunc(conn, rv, t)
}

func bindFunc(conn *rpc.Connection, rv reflect.Value, t reflect.Type) (uint64, error) {
	if t.NumOut() != 0 {
		return 0, fmt.Errorf("codec: callable %s must not return a value", t)
	}
	if t.IsVariadic() {
		return 0, fmt.Errorf("codec: variadic callables are not supported")
	}
	id, ok := conn.RegisterLocal(func(payload []byte) {
		d := NewDecoder(bytes.NewReader(payload), conn)
		args := make([]reflect.Value, t.NumIn())
		for i := range args {
			av := reflect.New(t.In(i)).Elem()
			if err := d.decodeValue(av); err != nil {
				return // malformed argument payload: drop the call
			}
			args[i] = av
		}
		rv.Call(args)
	})
	if !ok {
		return 0, fmt.Errorf("codec: connection is closed")
	}
	return id, nil
}
