package table

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"go-pagedb/pkg/bptree"
	"go-pagedb/pkg/column"
	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/pager"
	"go-pagedb/pkg/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var greetings = column.Schema{
	column.New("id", types.KindInteger),
	column.New("greeting", types.KindText),
}

func TestCreateInsertGet(t *testing.T) {
	tbl, err := Create(pager.NewMemoryStore(), greetings, []string{"id"}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultOptions.PageSize, tbl.PageSize())
	require.Equal(t, uint64(1), tbl.PageCount())

	require.NoError(t, tbl.Insert(types.Row{types.Integer(0), types.Text("Hello World")}))

	row, err := tbl.Get(types.Integer(0))
	require.NoError(t, err)
	require.Equal(t, types.Row{types.Integer(0), types.Text("Hello World")}, row)

	_, err = tbl.Get(types.Integer(1))
	require.ErrorIs(t, err, customerrors.ErrKeyNotFound)

	err = tbl.Insert(types.Row{types.Integer(0), types.Text("again")})
	require.ErrorIs(t, err, customerrors.ErrKeyExists)
}

func TestInsertSchemaError(t *testing.T) {
	tbl, err := Create(pager.NewMemoryStore(), greetings, []string{"id"}, nil)
	require.NoError(t, err)

	var schemaErr *customerrors.SchemaError

	err = tbl.Insert(types.Row{types.Text("not-an-int"), types.Text("x")})
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, 0, schemaErr.Position)
	require.Equal(t, types.KindInteger, schemaErr.Expected)

	err = tbl.Insert(types.Row{types.Integer(1)})
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, 1, schemaErr.Position)

	err = tbl.Insert(types.Row{types.Integer(1), types.Text("x"), types.Integer(2)})
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, 2, schemaErr.Position)
	require.Equal(t, types.KindNone, schemaErr.Expected)

	_, err = tbl.Get(types.Text("0"))
	require.True(t, errors.As(err, &schemaErr))
	_, err = tbl.Get()
	require.True(t, errors.As(err, &schemaErr))

	stats, err := tbl.Check()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Entries)
}

func TestCompositeKey(t *testing.T) {
	schema := column.Schema{
		column.New("id", types.KindInteger),
		column.New("info", types.KindText),
		column.New("x", types.KindText),
	}
	tbl, err := Create(pager.NewMemoryStore(), schema, []string{"id", "info"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "info"}, tbl.PrimaryKey())
	require.Equal(t, schema, tbl.Schema())

	require.NoError(t, tbl.Insert(types.Row{types.Integer(1), types.Text("a"), types.Text("first")}))
	require.NoError(t, tbl.Insert(types.Row{types.Integer(1), types.Text("b"), types.Text("second")}))

	row, err := tbl.Get(types.Integer(1), types.Text("b"))
	require.NoError(t, err)
	require.Equal(t, types.Text("second"), row[2])
}

func TestFloatKey(t *testing.T) {
	schema := column.Schema{column.New("x", types.KindFloat)}
	tbl, err := Create(pager.NewMemoryStore(), schema, []string{"x"}, nil)
	require.NoError(t, err)

	err = tbl.Insert(types.Row{types.Float(float32(math.NaN()))})
	require.ErrorIs(t, err, customerrors.ErrInvalidKey)

	require.NoError(t, tbl.Insert(types.Row{types.Float(-1.5)}))
	row, err := tbl.Get(types.Float(-1.5))
	require.NoError(t, err)
	require.Equal(t, types.Row{types.Float(-1.5)}, row)
}

func TestCreateErrors(t *testing.T) {
	store := pager.NewMemoryStore()
	_, err := Create(store, greetings, []string{"id"}, nil)
	require.NoError(t, err)

	_, err = Create(store, greetings, []string{"id"}, nil)
	require.ErrorIs(t, err, ErrStoreNotEmpty)

	_, err = Create(pager.NewMemoryStore(), greetings, []string{"missing"}, nil)
	require.ErrorIs(t, err, customerrors.ErrInvalidPrimaryKey)

	_, err = Create(pager.NewMemoryStore(), greetings, []string{"id"}, &Options{PageSize: 100})
	require.Error(t, err)

	_, err = Create(pager.NewMemoryStore(), greetings, []string{"id"}, &Options{PageSize: 64})
	require.ErrorIs(t, err, bptree.ErrPageTooSmall)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(greetings, []string{"id"}, nil))
	require.NoError(t, Validate(greetings, []string{"id"}, &Options{PageSize: 128}))
	require.ErrorIs(t, Validate(greetings, []string{"id"}, &Options{PageSize: 64}), bptree.ErrPageTooSmall)
	require.ErrorIs(t, Validate(greetings, nil, nil), customerrors.ErrInvalidPrimaryKey)
	require.ErrorIs(t, Validate(column.Schema{}, []string{"id"}, nil), customerrors.ErrInvalidSchema)
	require.Error(t, Validate(greetings, []string{"id"}, &Options{PageSize: 100}))
}

func TestReopen(t *testing.T) {
	name := filepath.Join(t.TempDir(), "greetings.tbl")
	opts := &Options{PageSize: 256, FillFactor: 0.75}

	fs, err := pager.OpenFile(name, 0644)
	require.NoError(t, err)
	tbl, err := Create(fs, greetings, []string{"id"}, opts)
	require.NoError(t, err)

	for i := int32(0); i < 500; i++ {
		require.NoError(t, tbl.Insert(types.Row{types.Integer(i), types.Text(fmt.Sprintf("hello %d", i))}))
	}
	count := tbl.PageCount()
	require.Greater(t, count, uint64(1))
	require.NoError(t, tbl.Close())

	fs, err = pager.OpenFile(name, 0644)
	require.NoError(t, err)
	tbl, err = Open(fs, &Options{PageSize: 4096})
	require.NoError(t, err)
	defer tbl.Close()

	require.Equal(t, 256, tbl.PageSize())
	require.Equal(t, count, tbl.PageCount())
	require.Equal(t, greetings, tbl.Schema())

	for i := int32(0); i < 500; i++ {
		row, err := tbl.Get(types.Integer(i))
		require.NoError(t, err)
		require.Equal(t, types.Text(fmt.Sprintf("hello %d", i)), row[1])
	}

	stats, err := tbl.Check()
	require.NoError(t, err)
	require.Equal(t, 500, stats.Entries)
}

func TestOpenGarbage(t *testing.T) {
	store := pager.NewMemoryStore()
	_, err := store.WriteAt([]byte("not a table at all, just some bytes"), 0)
	require.NoError(t, err)

	_, err = Open(store, nil)
	var decodeErr *customerrors.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, int64(0), decodeErr.Offset)
}
