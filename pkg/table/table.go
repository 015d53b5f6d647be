// Package table binds a schema, a backing store and the B+ tree holding the
// rows of one table.
package table

import (
	"go-pagedb/pkg/bptree"
	"go-pagedb/pkg/column"
	"go-pagedb/pkg/header"
	"go-pagedb/pkg/pager"
	"go-pagedb/pkg/types"

	"github.com/pkg/errors"
)

var ErrStoreNotEmpty = errors.New("store is not empty")

type Table struct {
	store   pager.Store
	header  *header.Header
	pager   *pager.Pager
	tree    *bptree.BPlusTree
	keyIdxs []int
}

// Create initializes an empty store with the header and an empty root leaf.
func Create(store pager.Store, schema column.Schema, pk []string, opts *Options) (*Table, error) {
	opts = opts.orDefault()

	if sz, err := store.Size(); err != nil {
		return nil, errors.Wrap(err, "failed to stat store")
	} else if sz != 0 {
		return nil, errors.Wrapf(ErrStoreNotEmpty, "size=%d", sz)
	}

	h, err := newHeader(schema, pk, opts)
	if err != nil {
		return nil, err
	}

	b, err := h.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal header")
	}
	page := make([]byte, opts.PageSize)
	copy(page, b)
	if _, err := store.WriteAt(page, 0); err != nil {
		return nil, errors.Wrap(err, "failed to write header")
	}

	p := pager.New(store, opts.PageSize, h.PageCount)
	tree, err := bptree.Init(p, h, opts.treeOptions())
	if err != nil {
		return nil, err
	}
	return newTable(store, h, p, tree), nil
}

// Validate runs the checks Create does before it writes anything.
func Validate(schema column.Schema, pk []string, opts *Options) error {
	_, err := newHeader(schema, pk, opts.orDefault())
	return err
}

func newHeader(schema column.Schema, pk []string, opts *Options) (*header.Header, error) {
	h, err := header.New(schema, pk, opts.PageSize)
	if err != nil {
		return nil, err
	}
	if err := bptree.CheckRoom(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open reads the header of an existing table. The page size stored in the
// header wins over opts.
func Open(store pager.Store, opts *Options) (*Table, error) {
	opts = opts.orDefault()

	h, err := header.ReadAt(store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	p := pager.New(store, int(h.PageSize), h.PageCount)
	tree, err := bptree.Open(p, h, opts.treeOptions())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tree")
	}
	return newTable(store, h, p, tree), nil
}

func newTable(store pager.Store, h *header.Header, p *pager.Pager, tree *bptree.BPlusTree) *Table {
	return &Table{
		store:   store,
		header:  h,
		pager:   p,
		tree:    tree,
		keyIdxs: h.KeyIndexes(),
	}
}

// Insert validates row against the schema and stores it under its primary
// key.
func (t *Table) Insert(row types.Row) error {
	if err := t.header.Schema.Validate(row); err != nil {
		return err
	}

	key := make(types.Key, len(t.keyIdxs))
	for i, idx := range t.keyIdxs {
		key[i] = row[idx]
	}
	if err := column.ValidateKey(t.header.KeyKinds(), key); err != nil {
		return err
	}
	return t.tree.Put(key, row)
}

// Get returns a copy of the row stored under key.
func (t *Table) Get(key ...types.Value) (types.Row, error) {
	if err := column.ValidateKey(t.header.KeyKinds(), key); err != nil {
		return nil, err
	}

	row, err := t.tree.Get(key)
	if err != nil {
		return nil, err
	}
	return row.Copy(), nil
}

func (t *Table) Schema() column.Schema {
	return t.header.Schema.Copy()
}

func (t *Table) PrimaryKey() []string {
	return append([]string{}, t.header.PrimaryKey...)
}

func (t *Table) PageSize() int {
	return int(t.header.PageSize)
}

// PageCount returns the number of pages allocated in the store.
func (t *Table) PageCount() uint64 {
	return t.pager.Count()
}

// Check verifies the tree invariants and returns its shape.
func (t *Table) Check() (bptree.Stats, error) {
	return t.tree.Check()
}

func (t *Table) Close() error {
	if err := t.pager.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync table")
	}
	return t.pager.Close()
}
