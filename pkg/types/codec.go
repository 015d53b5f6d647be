package types

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrShortBuffer = errors.New("buffer too short for value")
	ErrUnknownKind = errors.New("unknown value kind")
)

// Size returns the number of bytes Encode produces for v.
func Size(v Value) int {
	switch v := v.(type) {
	case Integer, Float:
		return 4
	case Text:
		return lengthPrefixSz + len(v)
	case Bytes:
		return lengthPrefixSz + len(v)
	default:
		panic(errors.Errorf("unexpected value type %T", v))
	}
}

// SizeOf returns the encoded size of all values together.
func SizeOf(values []Value) int {
	sz := 0
	for _, v := range values {
		sz += Size(v)
	}
	return sz
}

// Put writes the encoding of v at the start of buf and returns the number of
// bytes written. buf must have at least Size(v) bytes.
func Put(buf []byte, v Value) int {
	switch v := v.(type) {
	case Integer:
		bin.PutUint32(buf[0:4], uint32(v))
		return 4
	case Float:
		bin.PutUint32(buf[0:4], math.Float32bits(float32(v)))
		return 4
	case Text:
		bin.PutUint32(buf[0:4], uint32(len(v)))
		return lengthPrefixSz + copy(buf[lengthPrefixSz:], v)
	case Bytes:
		bin.PutUint32(buf[0:4], uint32(len(v)))
		return lengthPrefixSz + copy(buf[lengthPrefixSz:], v)
	default:
		panic(errors.Errorf("unexpected value type %T", v))
	}
}

// Decode reads a value of the given kind from the start of d and returns it
// together with the number of bytes consumed. Text and Bytes payloads are
// copied out of d.
func Decode(kind Kind, d []byte) (Value, int, error) {
	switch kind {
	case KindInteger:
		if len(d) < 4 {
			return nil, 0, ErrShortBuffer
		}
		return Integer(int32(bin.Uint32(d[0:4]))), 4, nil
	case KindFloat:
		if len(d) < 4 {
			return nil, 0, ErrShortBuffer
		}
		return Float(math.Float32frombits(bin.Uint32(d[0:4]))), 4, nil
	case KindText, KindBytes:
		if len(d) < lengthPrefixSz {
			return nil, 0, ErrShortBuffer
		}
		sz := int(bin.Uint32(d[0:4]))
		if sz < 0 || sz > len(d)-lengthPrefixSz {
			return nil, 0, ErrShortBuffer
		}
		payload := d[lengthPrefixSz : lengthPrefixSz+sz]
		if kind == KindText {
			return Text(payload), lengthPrefixSz + sz, nil
		}
		return append(Bytes{}, payload...), lengthPrefixSz + sz, nil
	default:
		return nil, 0, errors.Wrapf(ErrUnknownKind, "kind=%d", kind)
	}
}
