// Package database manages a set of named tables kept in a Catalog.
package database

import (
	"go-pagedb/pkg/column"
	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/table"
	"go-pagedb/pkg/types"
	"go-pagedb/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Database struct {
	catalog Catalog
	opts    *table.Options
	tables  map[string]*table.Table
	log     *logrus.Entry
}

// New opens every table the catalog already holds.
func New(catalog Catalog, opts *table.Options) (*Database, error) {
	names, err := catalog.List()
	if err != nil {
		return nil, err
	}

	db := &Database{
		catalog: catalog,
		opts:    opts,
		tables:  make(map[string]*table.Table, len(names)),
		log:     logger.With("database"),
	}

	for _, name := range names {
		store, err := catalog.Open(name)
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to open table: '%s'", name)
		}

		t, err := table.Open(store, opts)
		if err != nil {
			_ = store.Close()
			db.Close()
			return nil, errors.Wrapf(err, "failed to open table: '%s'", name)
		}
		db.tables[name] = t
		db.log.Infof("opened table '%s' (%d pages)", name, t.PageCount())
	}
	return db, nil
}

// CreateTable creates an empty table. pk names the primary key columns in
// key order.
func (db *Database) CreateTable(name string, schema column.Schema, pk ...string) error {
	if !ValidTableName(name) {
		return errors.Wrapf(ErrInvalidTableName, "'%s'", name)
	} else if _, ok := db.tables[name]; ok || db.catalog.Exists(name) {
		return errors.Wrapf(customerrors.ErrTableExists, "table='%s'", name)
	}

	// validate before the catalog creates anything
	if err := table.Validate(schema, pk, db.opts); err != nil {
		return err
	}

	store, err := db.catalog.Create(name)
	if err != nil {
		return err
	}

	t, err := table.Create(store, schema, pk, db.opts)
	if err != nil {
		_ = store.Close()
		if rerr := db.catalog.Remove(name); rerr != nil {
			db.log.Errorf("failed to remove table '%s' after failed create: %v", name, rerr)
		}
		return errors.Wrapf(err, "failed to create table: '%s'", name)
	}
	db.tables[name] = t
	db.log.Infof("created table '%s' %v primary key %v", name, schema.Names(), pk)
	return nil
}

// Insert stores row in the named table.
func (db *Database) Insert(name string, row types.Row) error {
	t, err := db.table(name)
	if err != nil {
		return err
	}
	return t.Insert(row)
}

// InsertValues is Insert with plain Go values, see types.ValueOf.
func (db *Database) InsertValues(name string, values ...interface{}) error {
	row, err := types.ValuesOf(values...)
	if err != nil {
		return err
	}
	return db.Insert(name, row)
}

// Read returns the row stored under key in the named table.
func (db *Database) Read(name string, key ...types.Value) (types.Row, error) {
	t, err := db.table(name)
	if err != nil {
		return nil, err
	}
	return t.Get(key...)
}

// ReadValues is Read with plain Go values in and out.
func (db *Database) ReadValues(name string, key ...interface{}) ([]interface{}, error) {
	k, err := types.ValuesOf(key...)
	if err != nil {
		return nil, err
	}

	row, err := db.Read(name, k...)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v.Interface()
	}
	return values, nil
}

func (db *Database) Schema(name string) (column.Schema, error) {
	t, err := db.table(name)
	if err != nil {
		return nil, err
	}
	return t.Schema(), nil
}

func (db *Database) PrimaryKey(name string) ([]string, error) {
	t, err := db.table(name)
	if err != nil {
		return nil, err
	}
	return t.PrimaryKey(), nil
}

// Tables returns the names of all open tables in ascending order.
func (db *Database) Tables() []string {
	names := maps.Keys(db.tables)
	slices.Sort(names)
	return names
}

// Table gives direct access to the named table.
func (db *Database) Table(name string) (*table.Table, error) {
	return db.table(name)
}

func (db *Database) table(name string) (*table.Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, errors.Wrapf(customerrors.ErrTableNotFound, "table='%s'", name)
	}
	return t, nil
}

// Close syncs and closes every table. The first error is returned, the
// remaining tables are closed regardless.
func (db *Database) Close() error {
	var firstErr error
	for name, t := range db.tables {
		if err := t.Close(); err != nil {
			db.log.Errorf("failed to close table '%s': %v", name, err)
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to close table: '%s'", name)
			}
		}
		delete(db.tables, name)
	}
	return firstErr
}
