package pager

import (
	"io"

	"github.com/pkg/errors"
)

// Store is the backing byte store of a single table. Exactly one pager
// owns a store for its whole lifetime.
type Store interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the current size of the store in bytes.
	Size() (int64, error)
	Sync() error
	Close() error
}

var ErrClosed = errors.New("store is closed")

// MemoryStore keeps the whole store in a byte slice. Useful for tests and
// throwaway tables.
type MemoryStore struct {
	data   []byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: []byte{}}
}

func (s *MemoryStore) ReadAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}

	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *MemoryStore) WriteAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}

	if end := off + int64(len(p)); end > int64(len(s.data)) {
		if end > int64(cap(s.data)) {
			grown := make([]byte, end, 2*end)
			copy(grown, s.data)
			s.data = grown
		} else {
			s.data = s.data[:end]
		}
	}
	return copy(s.data[off:], p), nil
}

func (s *MemoryStore) Size() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return int64(len(s.data)), nil
}

// Bytes exposes the raw content, mostly for tests.
func (s *MemoryStore) Bytes() []byte {
	return s.data
}

func (s *MemoryStore) Sync() error { return nil }

func (s *MemoryStore) Close() error {
	s.closed = true
	return nil
}
