// Package pager addresses a backing store in fixed size pages. Page n starts
// at byte n*pageSize. The pager owns page allocation and keeps the page count
// in the table header up to date.
package pager

import (
	"math"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/header"
	"go-pagedb/util/logger"

	"github.com/pkg/errors"
)

var ErrPageOutOfRange = errors.New("page out of range")

// Pager reads, writes and allocates pages of a single store.
type Pager struct {
	store    Store
	pageSize int
	count    uint64
}

// New returns a pager over store which already holds count pages.
func New(store Store, pageSize int, count uint64) *Pager {
	return &Pager{
		store:    store,
		pageSize: pageSize,
		count:    count,
	}
}

func (p *Pager) PageSize() int { return p.pageSize }

// Count returns the number of allocated pages, page 0 included.
func (p *Pager) Count() uint64 { return p.count }

// Offset returns the absolute store offset of the page.
func (p *Pager) Offset(id uint32) int64 {
	return int64(id) * int64(p.pageSize)
}

// Read returns the full content of the page.
func (p *Pager) Read(id uint32) ([]byte, error) {
	if uint64(id) >= p.count {
		return nil, errors.Wrapf(ErrPageOutOfRange, "page=%d count=%d", id, p.count)
	}

	buf := make([]byte, p.pageSize)
	n, err := p.store.ReadAt(buf, p.Offset(id))
	if n < len(buf) {
		if err == nil {
			err = errors.Errorf("short read of %d bytes", n)
		}
		return nil, errors.Wrapf(err, "failed to read page %d", id)
	}
	return buf, nil
}

// Write writes d into the page starting at offset off within the page.
func (p *Pager) Write(id uint32, off int, d []byte) error {
	if uint64(id) >= p.count {
		return errors.Wrapf(ErrPageOutOfRange, "page=%d count=%d", id, p.count)
	} else if off < 0 || off+len(d) > p.pageSize {
		return errors.Errorf("write of %d bytes at %d crosses page %d boundary", len(d), off, id)
	}

	_, err := p.store.WriteAt(d, p.Offset(id)+int64(off))
	return errors.Wrapf(err, "failed to write page %d", id)
}

// Alloc appends a zeroed page to the store, records the new page count in
// the header and returns the new page id.
func (p *Pager) Alloc() (uint32, error) {
	if p.count > math.MaxUint32 {
		return 0, customerrors.ErrStoreFull
	}

	id := uint32(p.count)
	if _, err := p.store.WriteAt(make([]byte, p.pageSize), p.Offset(id)); err != nil {
		return 0, errors.Wrapf(err, "failed to allocate page %d", id)
	}
	if err := header.WritePageCount(p.store, p.count+1); err != nil {
		return 0, err
	}

	p.count++
	logger.L.Tracef("allocated page %d", id)
	return id, nil
}

func (p *Pager) Sync() error {
	return p.store.Sync()
}

func (p *Pager) Close() error {
	return p.store.Close()
}
