package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"

	"go.oxrpc.dev/ox/rpc"
)

// Decoder deserializes Go values from an input byte source, constructing a
// proxy closure wherever it encounters an identifier previously written in
// place of a callable.
type Decoder struct {
	r    io.Reader
	conn *rpc.Connection
}

// NewDecoder returns a Decoder that reads from r and, when it decodes a
// callable, builds proxy closures that invoke through conn.
func NewDecoder(r io.Reader, conn *rpc.Connection) *Decoder {
	return &Decoder{r: r, conn: conn}
}

// Decode reads one value of the type pointed to by v into v.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("codec: Decode requires a non-nil pointer")
	}
	return d.decodeValue(rv.Elem())
}

// DecodeAll decodes len(values) components in order into the pointers in
// values, the inverse of EncodeAll.
func (d *Decoder) DecodeAll(values ...any) error {
	for _, v := range values {
		if err := d.Decode(v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeValue(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		var b [1]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return err
		}
		rv.SetBool(b[0] != 0)
		return nil
	case reflect.Int, reflect.Int64:
		var v int64
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetInt(v)
		return nil
	case reflect.Int8:
		var v int8
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Int16:
		var v int16
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Int32:
		var v int32
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		var v uint64
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetUint(v)
		return nil
	case reflect.Uint8:
		var v uint8
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	case reflect.Uint16:
		var v uint16
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	case reflect.Uint32:
		var v uint32
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	case reflect.Float32:
		var v float32
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetFloat(float64(v))
		return nil
	case reflect.Float64:
		var v float64
		if err := readFixed(d.r, &v); err != nil {
			return err
		}
		rv.SetFloat(v)
		return nil
	case reflect.String:
		s, err := d.decodeString()
		if err != nil {
			return err
		}
		rv.SetString(s)
		return nil
	case reflect.Slice:
		return d.decodeSlice(rv)
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := d.decodeValue(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return d.decodeStruct(rv)
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decodeValue(rv.Elem())
	case reflect.Func:
		return d.decodeFunc(rv)
	default:
		return fmt.Errorf("codec: unsupported kind %s", rv.Kind())
	}
}

func (d *Decoder) decodeString() (string, error) {
	var n uint64
	if err := readFixed(d.r, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *Decoder) decodeSlice(rv reflect.Value) error {
	var n uint64
	if err := readFixed(d.r, &n); err != nil {
		return err
	}
	s := reflect.MakeSlice(rv.Type(), int(n), int(n))
	for i := 0; i < int(n); i++ {
		if err := d.decodeValue(s.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(s)
	return nil
}

func (d *Decoder) decodeStruct(rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		if err := d.decodeValue(rv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// decodeFunc reads the identifier the peer registered for this closure and
// builds a proxy bound to it, returning a Go func value of the declared type
// whose Call sends an invocation record.
func (d *Decoder) decodeFunc(rv reflect.Value) error {
	t := rv.Type()
	if t.NumOut() != 0 {
		return fmt.Errorf("codec: callable %s must not return a value", t)
	}
	var id uint64
	if err := readFixed(d.r, &id); err != nil {
		return err
	}
	p := newProxy(d.conn, id)
	rv.Set(p.makeFunc(t))
	return nil
}

func readFixed(r io.Reader, v any) error {
	return binary.Read(r, binary.NativeEndian, v)
}
