//go:build !(linux || darwin || freebsd)

package pager

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// minMmapSz is the smallest mapping created for a non-empty file.
const minMmapSz = 1 << 16

// MmapStore maps the backing file into memory through mmap-go. Mapping past
// the end of the file extends it, so the file is truncated back to the
// logical size on Close.
type MmapStore struct {
	file *os.File
	data mmap.MMap
	size int64
}

func OpenMmap(name string, perm os.FileMode) (*MmapStore, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, perm)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open '%s'", name)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "failed to stat store")
	}

	s := &MmapStore{file: f, size: fi.Size()}
	if s.size > 0 {
		if err := s.remap(s.size); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *MmapStore) ReadAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, ErrClosed
	}
	if off >= s.size {
		return 0, io.EOF
	}

	n := copy(p, s.data[off:s.size])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *MmapStore) WriteAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, ErrClosed
	}

	end := off + int64(len(p))
	if end > int64(len(s.data)) {
		if err := s.remap(end); err != nil {
			return 0, err
		}
	}
	if end > s.size {
		s.size = end
	}
	return copy(s.data[off:end], p), nil
}

func (s *MmapStore) Size() (int64, error) {
	if s.file == nil {
		return 0, ErrClosed
	}
	return s.size, nil
}

func (s *MmapStore) Sync() error {
	if s.file == nil {
		return ErrClosed
	}
	if s.data == nil {
		return nil
	}
	return errors.Wrap(s.data.Flush(), "flush failed")
}

func (s *MmapStore) Close() error {
	if s.file == nil {
		return nil
	}

	var err error
	if s.data != nil {
		err = errors.Wrap(s.data.Unmap(), "unmap failed")
		s.data = nil
	}
	if terr := s.file.Truncate(s.size); err == nil {
		err = errors.Wrap(terr, "failed to truncate store")
	}
	if cerr := s.file.Close(); err == nil {
		err = errors.Wrap(cerr, "failed to close store")
	}
	s.file = nil
	return err
}

// remap replaces the mapping with one covering at least need bytes.
func (s *MmapStore) remap(need int64) error {
	sz := int64(minMmapSz)
	for sz < need {
		sz <<= 1
	}

	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return errors.Wrap(err, "unmap failed")
		}
		s.data = nil
	}

	data, err := mmap.MapRegion(s.file, int(sz), mmap.RDWR, 0, 0)
	if err != nil {
		return errors.Wrap(err, "failed to map store")
	}
	s.data = data
	return nil
}
