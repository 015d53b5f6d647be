package types

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var ErrKindMismatch = errors.New("values of different kinds are not comparable")

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareValues orders two values of the same kind. Text and Bytes compare
// byte-lexicographically.
func CompareValues(a, b Value) (int, error) {
	switch av := a.(type) {
	case Integer:
		if bv, ok := b.(Integer); ok {
			return compareOrdered(av, bv), nil
		}
	case Float:
		if bv, ok := b.(Float); ok {
			return compareOrdered(av, bv), nil
		}
	case Text:
		if bv, ok := b.(Text); ok {
			return compareOrdered(av, bv), nil
		}
	case Bytes:
		if bv, ok := b.(Bytes); ok {
			return bytes.Compare(av, bv), nil
		}
	}
	return 0, errors.Wrapf(ErrKindMismatch, "%s vs %s", kindOf(a), kindOf(b))
}

// Compare is CompareValues for callers that already validated kinds.
// It panics on a kind mismatch.
func Compare(a, b Value) int {
	cmp, err := CompareValues(a, b)
	if err != nil {
		panic(err)
	}
	return cmp
}

// CompareKeys compares composite keys field by field.
func CompareKeys(a, b Key) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if cmp := Compare(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return compareOrdered(len(a), len(b))
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}
