package types

import (
	"math"

	"github.com/pkg/errors"
)

var ErrUnsupportedValue = errors.New("unsupported go value")

// ValueOf converts a plain Go scalar to a Value. Integers must fit into 32
// bits. Values that already implement Value are returned as is.
func ValueOf(item interface{}) (Value, error) {
	switch v := item.(type) {
	case Value:
		return v, nil
	case int:
		return intValue(int64(v))
	case int8:
		return Integer(v), nil
	case int16:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return intValue(v)
	case uint8:
		return Integer(v), nil
	case uint16:
		return Integer(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint32:
		return uintValue(uint64(v))
	case uint64:
		return uintValue(v)
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return append(Bytes{}, v...), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedValue, "%T", item)
	}
}

// ValuesOf converts every item with ValueOf.
func ValuesOf(items ...interface{}) ([]Value, error) {
	values := make([]Value, len(items))
	for i, item := range items {
		v, err := ValueOf(item)
		if err != nil {
			return nil, errors.Wrapf(err, "position %d", i)
		}
		values[i] = v
	}
	return values, nil
}

func intValue(v int64) (Value, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, errors.Wrapf(ErrUnsupportedValue, "integer %d overflows int32", v)
	}
	return Integer(v), nil
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt32 {
		return nil, errors.Wrapf(ErrUnsupportedValue, "integer %d overflows int32", v)
	}
	return Integer(v), nil
}
