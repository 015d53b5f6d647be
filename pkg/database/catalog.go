package database

import (
	"os"
	"path/filepath"
	"strings"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/pager"
	"go-pagedb/util/helpers"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TableExt is the file extension of table files in a DirCatalog.
const TableExt = ".tbl"

var ErrInvalidTableName = errors.New("invalid table name")

// Catalog resolves table names to backing stores.
type Catalog interface {
	// Create returns a new empty store for name.
	Create(name string) (pager.Store, error)
	// Open returns the store of an existing table.
	Open(name string) (pager.Store, error)
	Exists(name string) bool
	// Remove discards the store of name. Removing a missing table is not
	// an error.
	Remove(name string) error
	// List returns the names of all tables in ascending order.
	List() ([]string, error)
}

// ValidTableName accepts non-empty names made of letters, digits, '_'
// and '-'.
func ValidTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// MemoryCatalog keeps every table in memory for the lifetime of the
// catalog. Closing a table does not discard it, so a new Database over the
// same catalog sees the same tables.
type MemoryCatalog struct {
	stores map[string]*pager.MemoryStore
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{stores: map[string]*pager.MemoryStore{}}
}

type memoryHandle struct {
	*pager.MemoryStore
}

func (memoryHandle) Close() error { return nil }

func (c *MemoryCatalog) Create(name string) (pager.Store, error) {
	if c.Exists(name) {
		return nil, errors.Wrapf(customerrors.ErrTableExists, "table='%s'", name)
	}
	s := pager.NewMemoryStore()
	c.stores[name] = s
	return memoryHandle{s}, nil
}

func (c *MemoryCatalog) Open(name string) (pager.Store, error) {
	s, ok := c.stores[name]
	if !ok {
		return nil, errors.Wrapf(customerrors.ErrTableNotFound, "table='%s'", name)
	}
	return memoryHandle{s}, nil
}

func (c *MemoryCatalog) Exists(name string) bool {
	_, ok := c.stores[name]
	return ok
}

func (c *MemoryCatalog) Remove(name string) error {
	delete(c.stores, name)
	return nil
}

func (c *MemoryCatalog) List() ([]string, error) {
	names := maps.Keys(c.stores)
	slices.Sort(names)
	return names, nil
}

// DirCatalog keeps one <name>.tbl file per table in a directory.
type DirCatalog struct {
	dir  string
	mmap bool
	perm os.FileMode
}

// NewDirCatalog creates dir if it does not exist. With mmap set, table
// files are memory mapped instead of accessed with pread/pwrite.
func NewDirCatalog(dir string, mmap bool) (*DirCatalog, error) {
	if err := helpers.CreateDir(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory '%s'", dir)
	}
	return &DirCatalog{dir: dir, mmap: mmap, perm: 0664}, nil
}

// TablePath returns the path of the file holding the named table.
func (c *DirCatalog) TablePath(name string) string {
	return filepath.Join(c.dir, name+TableExt)
}

func (c *DirCatalog) Create(name string) (pager.Store, error) {
	if !ValidTableName(name) {
		return nil, errors.Wrapf(ErrInvalidTableName, "'%s'", name)
	} else if c.Exists(name) {
		return nil, errors.Wrapf(customerrors.ErrTableExists, "table='%s'", name)
	}
	return c.open(name)
}

func (c *DirCatalog) Open(name string) (pager.Store, error) {
	if !ValidTableName(name) || !c.Exists(name) {
		return nil, errors.Wrapf(customerrors.ErrTableNotFound, "table='%s'", name)
	}
	return c.open(name)
}

func (c *DirCatalog) open(name string) (pager.Store, error) {
	if c.mmap {
		return pager.OpenMmap(c.TablePath(name), c.perm)
	}
	return pager.OpenFile(c.TablePath(name), c.perm)
}

func (c *DirCatalog) Exists(name string) bool {
	fi, err := os.Stat(c.TablePath(name))
	return err == nil && fi.Mode().IsRegular()
}

func (c *DirCatalog) Remove(name string) error {
	if !ValidTableName(name) {
		return errors.Wrapf(ErrInvalidTableName, "'%s'", name)
	}
	if err := os.Remove(c.TablePath(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove table '%s'", name)
	}
	return nil
}

func (c *DirCatalog) List() ([]string, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tables directory")
	}

	names := []string{}
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.HasSuffix(de.Name(), TableExt) {
			continue
		}
		if name := helpers.TrimSuffix(de.Name(), TableExt); ValidTableName(name) {
			names = append(names, name)
		}
	}
	return names, nil
}
