package column

import (
	"bytes"

	"go-pagedb/pkg/types"
	"go-pagedb/util/binio"

	"github.com/pkg/errors"
)

// EncodeSchema serializes the column count followed by, per column:
// <name-length:int8><name><is-primary-key:bool>[<key-position:uint8>]<kind:int8>
func EncodeSchema(schema Schema, pk []string) ([]byte, error) {
	if err := schema.Check(); err != nil {
		return nil, err
	}
	if _, err := schema.KeyIndexes(pk); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, SchemaSize(schema, pk)))
	w := binio.NewWriter(buf)
	writeSchema(w, schema, pk)
	if err := w.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to encode schema")
	}
	return buf.Bytes(), nil
}

func writeSchema(w *binio.Writer, schema Schema, pk []string) {
	positions := keyPositions(pk)

	w.Uint8(uint8(len(schema)))
	for _, c := range schema {
		w.Int8(int8(len(c.Name)))
		w.Bytes([]byte(c.Name))
		pos, isKey := positions[c.Name]
		w.Bool(isKey)
		if isKey {
			w.Uint8(uint8(pos))
		}
		w.Int8(int8(c.Kind))
	}
}

// DecodeSchema reverses EncodeSchema. The primary key order is rebuilt from
// the recorded key positions, which must form the dense range 0..k-1.
func DecodeSchema(r *binio.Reader) (Schema, []string, error) {
	countOffset := r.Offset()
	count := int(r.Uint8())
	if r.Err() == nil && count == 0 {
		return nil, nil, r.Fail(countOffset)
	}

	schema := make(Schema, 0, count)
	keyByPos := map[int]string{}
	for i := 0; i < count && r.Err() == nil; i++ {
		lenOffset := r.Offset()
		nameLen := int(r.Int8())
		if r.Err() == nil && nameLen <= 0 {
			return nil, nil, r.Fail(lenOffset)
		}
		name := string(r.Bytes(nameLen))

		if r.Bool() {
			posOffset := r.Offset()
			pos := int(r.Uint8())
			if _, dup := keyByPos[pos]; dup && r.Err() == nil {
				return nil, nil, r.Fail(posOffset)
			}
			keyByPos[pos] = name
		}

		kindOffset := r.Offset()
		kind := types.Kind(r.Int8())
		if r.Err() == nil && !kind.Valid() {
			return nil, nil, r.Fail(kindOffset)
		}
		schema = append(schema, Column{Name: name, Kind: kind})
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}

	pk := make([]string, len(keyByPos))
	for i := range pk {
		name, ok := keyByPos[i]
		if !ok {
			return nil, nil, r.Fail(countOffset)
		}
		pk[i] = name
	}
	if len(pk) == 0 || schema.Check() != nil {
		return nil, nil, r.Fail(countOffset)
	}
	return schema, pk, nil
}

// SchemaSize returns the number of bytes EncodeSchema produces.
func SchemaSize(schema Schema, pk []string) int {
	positions := keyPositions(pk)
	total := 1 // column count
	for _, c := range schema {
		total += 1 + len(c.Name) + 1 + 1 // name length, name, key flag, kind
		if _, ok := positions[c.Name]; ok {
			total++
		}
	}
	return total
}

func keyPositions(pk []string) map[string]int {
	positions := make(map[string]int, len(pk))
	for i, name := range pk {
		positions[name] = i
	}
	return positions
}
