// Package customerrors defines the errors shared by the storage layers.
package customerrors

import (
	"errors"
	"fmt"

	"go-pagedb/pkg/types"
)

var (
	// ErrKeyNotFound is returned from lookup operations when the
	// lookup key is not present in the tree.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists is returned by insert when the primary key is
	// already stored. Nothing is written in that case.
	ErrKeyExists = errors.New("key already exists")

	// ErrRecordTooLarge is returned when an encoded leaf entry (key plus
	// row) exceeds half of an empty page, or a separator key exceeds a
	// third of the room left for the root on page 0. The half page limit
	// lets any overflowing node split into two pages. Records are never
	// fragmented across pages.
	ErrRecordTooLarge = errors.New("record exceeds the entry size limit of a page")

	// ErrStoreFull is returned when page references would overflow.
	ErrStoreFull = errors.New("page store is full")

	ErrInvalidSchema     = errors.New("invalid schema")
	ErrInvalidPrimaryKey = errors.New("invalid primary key")
	ErrInvalidKey        = errors.New("invalid key")

	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
)

// DecodeError reports malformed bytes found while parsing the header or a
// node. Offset is absolute within the backing store.
type DecodeError struct {
	Offset int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid bytes encountered at offset=%d", e.Offset)
}

func NewDecodeError(offset int64) *DecodeError {
	return &DecodeError{Offset: offset}
}

// SchemaError reports a value that does not match the declared column at
// Position. Expected is types.KindNone when the row has more values than the
// schema has columns. Value is nil when the row is too short.
type SchemaError struct {
	Value    interface{}
	Position int
	Expected types.Kind
}

func (e *SchemaError) Error() string {
	if e.Expected == types.KindNone {
		return fmt.Sprintf("unexpected value %v at position %d: no such column", e.Value, e.Position)
	}
	if e.Value == nil {
		return fmt.Sprintf("missing value at position %d, expected %s", e.Position, e.Expected)
	}
	return fmt.Sprintf("value %v (%T) at position %d, expected %s", e.Value, e.Value, e.Position, e.Expected)
}
