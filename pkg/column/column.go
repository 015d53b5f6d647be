package column

import (
	"math"
	"unicode/utf8"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/types"

	"github.com/pkg/errors"
)

const (
	// MaxNameLen is bounded by the signed length byte on disk.
	MaxNameLen = 127
	// MaxColumns and MaxKeyColumns are bounded by single count bytes.
	MaxColumns    = 255
	MaxKeyColumns = 255
)

type Column struct {
	Name string     `json:"name"`
	Kind types.Kind `json:"kind"`
}

func New(name string, kind types.Kind) Column {
	return Column{Name: name, Kind: kind}
}

// Schema is an ordered list of columns. Order defines the position of
// each value in a row.
type Schema []Column

func (s Schema) Copy() Schema {
	if s == nil {
		return nil
	}
	return append(make(Schema, 0, len(s)), s...)
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Kinds() []types.Kind {
	kinds := make([]types.Kind, len(s))
	for i, c := range s {
		kinds[i] = c.Kind
	}
	return kinds
}

// Check verifies column count, name lengths, uniqueness and kinds.
func (s Schema) Check() error {
	if len(s) == 0 {
		return errors.Wrap(customerrors.ErrInvalidSchema, "schema has no columns")
	} else if len(s) > MaxColumns {
		return errors.Wrapf(customerrors.ErrInvalidSchema, "too many columns: %d", len(s))
	}

	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		if len(c.Name) == 0 || len(c.Name) > MaxNameLen {
			return errors.Wrapf(customerrors.ErrInvalidSchema, "column %d: name length %d", i, len(c.Name))
		} else if !c.Kind.Valid() {
			return errors.Wrapf(customerrors.ErrInvalidSchema, "column '%s': unknown kind %d", c.Name, c.Kind)
		} else if _, ok := seen[c.Name]; ok {
			return errors.Wrapf(customerrors.ErrInvalidSchema, "duplicate column '%s'", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// KeyIndexes maps primary key names to schema positions after checking that
// the key is non-empty, unique and drawn from the schema.
func (s Schema) KeyIndexes(pk []string) ([]int, error) {
	if len(pk) == 0 {
		return nil, errors.Wrap(customerrors.ErrInvalidPrimaryKey, "primary key is empty")
	} else if len(pk) > MaxKeyColumns {
		return nil, errors.Wrapf(customerrors.ErrInvalidPrimaryKey, "too many key columns: %d", len(pk))
	}

	idx := make([]int, len(pk))
	seen := make(map[string]struct{}, len(pk))
	for i, name := range pk {
		if _, ok := seen[name]; ok {
			return nil, errors.Wrapf(customerrors.ErrInvalidPrimaryKey, "duplicate key column '%s'", name)
		}
		seen[name] = struct{}{}

		if idx[i] = s.Index(name); idx[i] < 0 {
			return nil, errors.Wrapf(customerrors.ErrInvalidPrimaryKey, "unknown column '%s'", name)
		}
	}
	return idx, nil
}

// Validate checks the kind of every value in row against the column at the
// same position, then the arity. Text must be valid utf-8.
func (s Schema) Validate(row types.Row) error {
	for i, v := range row {
		if i >= len(s) {
			return &customerrors.SchemaError{Value: valueOf(v), Position: i, Expected: types.KindNone}
		}
		if err := checkValue(v, i, s[i].Kind); err != nil {
			return err
		}
	}
	if len(row) < len(s) {
		return &customerrors.SchemaError{Position: len(row), Expected: s[len(row)].Kind}
	}
	return nil
}

// ValidateKey checks key positionally against the key kinds. NaN floats
// are rejected since they have no place in the key order.
func ValidateKey(kinds []types.Kind, key types.Key) error {
	for i, v := range key {
		if i >= len(kinds) {
			return &customerrors.SchemaError{Value: valueOf(v), Position: i, Expected: types.KindNone}
		}
		if err := checkValue(v, i, kinds[i]); err != nil {
			return err
		}
		if f, ok := v.(types.Float); ok && math.IsNaN(float64(f)) {
			return errors.Wrapf(customerrors.ErrInvalidKey, "NaN at key position %d", i)
		}
	}
	if len(key) < len(kinds) {
		return &customerrors.SchemaError{Position: len(key), Expected: kinds[len(key)]}
	}
	return nil
}

func checkValue(v types.Value, pos int, kind types.Kind) error {
	if v == nil || v.Kind() != kind {
		return &customerrors.SchemaError{Value: valueOf(v), Position: pos, Expected: kind}
	}
	if t, ok := v.(types.Text); ok && !utf8.ValidString(string(t)) {
		return &customerrors.SchemaError{Value: v.Interface(), Position: pos, Expected: kind}
	}
	return nil
}

func valueOf(v types.Value) interface{} {
	if v == nil {
		return nil
	}
	return v.Interface()
}
