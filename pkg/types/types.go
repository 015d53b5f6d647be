// Package types implements the scalar values stored in table rows and their
// canonical little endian encoding.
package types

import (
	"encoding/binary"
	"fmt"
)

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

type Kind int8

const (
	KindInteger Kind = iota // 32 bit signed integer
	KindFloat               // 32 bit floating point number
	KindText                // length prefixed utf-8 string
	KindBytes               // length prefixed raw bytes

	// KindNone never appears on disk.
	KindNone Kind = -1
)

// lengthPrefixSz is the width of the count written before Text and Bytes.
const lengthPrefixSz = 4

func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindFloat, KindText, KindBytes:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

// Value is one of Integer, Float, Text or Bytes.
type Value interface {
	Kind() Kind
	Interface() interface{}
	isValue()
}

type Integer int32
type Float float32
type Text string
type Bytes []byte

func (Integer) Kind() Kind { return KindInteger }
func (Float) Kind() Kind   { return KindFloat }
func (Text) Kind() Kind    { return KindText }
func (Bytes) Kind() Kind   { return KindBytes }

func (v Integer) Interface() interface{} { return int32(v) }
func (v Float) Interface() interface{}   { return float32(v) }
func (v Text) Interface() interface{}    { return string(v) }
func (v Bytes) Interface() interface{}   { return []byte(v) }

func (Integer) isValue() {}
func (Float) isValue()   {}
func (Text) isValue()    {}
func (Bytes) isValue()   {}

// Row is a full record in schema order.
type Row []Value

// Key is a primary key in primary key column order.
type Key []Value

// Copy returns a deep copy of the row, Bytes payloads included.
func (r Row) Copy() Row {
	if r == nil {
		return nil
	}
	cp := make(Row, len(r))
	for i, v := range r {
		cp[i] = CopyValue(v)
	}
	return cp
}

func (k Key) Copy() Key {
	return Key(Row(k).Copy())
}

func (k Key) String() string {
	return fmt.Sprintf("%v", []Value(k))
}

func CopyValue(v Value) Value {
	if b, ok := v.(Bytes); ok {
		return append(Bytes{}, b...)
	}
	return v
}
