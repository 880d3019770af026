// Package codec implements the serialization adapter: a pair of
// Encoder/Decoder types, each bound to an rpc.Connection, that transparently
// substitute registry identifiers for callables during encoding and
// construct proxy closures during decoding.
//
// Go has no variadic-arity generic mechanism for callables of unknown arity,
// so they are represented with reflect.Value/reflect.Type and built with
// reflect.MakeFunc (see DESIGN.md for the grounding of this approach).
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"go.oxrpc.dev/ox/rpc"
)

// Encoder serializes Go values onto an output byte sink, registering any
// callable value it encounters in the bound connection's registry and
// writing its allocated identifier in place of the closure itself.
type Encoder struct {
	w    io.Writer
	conn *rpc.Connection
}

// NewEncoder returns an Encoder that writes to w and registers any callables
// it encounters in conn.
func NewEncoder(w io.Writer, conn *rpc.Connection) *Encoder {
	return &Encoder{w: w, conn: conn}
}

// Encode serializes v, which may be an arithmetic scalar, a string, a slice,
// a struct (whose exported fields are encoded in declaration order), or a
// func value of arity n and no return.
func (e *Encoder) Encode(v any) error {
	return e.encodeValue(reflect.ValueOf(v))
}

// EncodeAll encodes each of values in order, as a tuple: each component is
// written in declaration order, concatenated.
func (e *Encoder) EncodeAll(values ...any) error {
	for _, v := range values {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeValue(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		var b byte
		if rv.Bool() {
			b = 1
		}
		_, err := e.w.Write([]byte{b})
		return err
	case reflect.Int, reflect.Int64:
		return writeFixed(e.w, int64(rv.Int()))
	case reflect.Int8:
		return writeFixed(e.w, int8(rv.Int()))
	case reflect.Int16:
		return writeFixed(e.w, int16(rv.Int()))
	case reflect.Int32:
		return writeFixed(e.w, int32(rv.Int()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return writeFixed(e.w, uint64(rv.Uint()))
	case reflect.Uint8:
		return writeFixed(e.w, uint8(rv.Uint()))
	case reflect.Uint16:
		return writeFixed(e.w, uint16(rv.Uint()))
	case reflect.Uint32:
		return writeFixed(e.w, uint32(rv.Uint()))
	case reflect.Float32:
		return writeFixed(e.w, float32(rv.Float()))
	case reflect.Float64:
		return writeFixed(e.w, rv.Float())
	case reflect.String:
		return e.encodeString(rv.String())
	case reflect.Slice:
		return e.encodeSlice(rv)
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := e.encodeValue(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return e.encodeStruct(rv)
	case reflect.Ptr:
		if rv.IsNil() {
			return fmt.Errorf("codec: cannot encode nil %s", rv.Type())
		}
		return e.encodeValue(rv.Elem())
	case reflect.Func:
		return e.encodeFunc(rv)
	default:
		return fmt.Errorf("codec: unsupported kind %s", rv.Kind())
	}
}

func (e *Encoder) encodeString(s string) error {
	if err := writeFixed(e.w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) encodeSlice(rv reflect.Value) error {
	n := rv.Len()
	if err := writeFixed(e.w, uint64(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encodeValue(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeStruct(rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue // unexported field
		}
		if err := e.encodeValue(rv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// encodeFunc registers rv in the connection's callback table under a new
// identifier, then writes that identifier. The registered handler decodes an
// n-tuple of rv's declared argument types from its payload and applies rv to
// them; rpc.dispatch recovers any panic the call raises, so a misbehaving
// closure cannot take down the connection.
func (e *Encoder) encodeFunc(rv reflect.Value) error {
	id, err := bindFunc(e.conn, rv, rv.Type())
	if err != nil {
		return err
	}
	return writeFixed(e.w, id)
}

func writeFixed(w io.Writer, v any) error {
	return binary.Write(w, binary.NativeEndian, v)
}
