//go:build linux || darwin || freebsd

package pager

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// minMmapSz is the smallest mapping created for a non-empty file.
const minMmapSz = 1 << 16

// MmapStore maps the backing file into memory. Writes past the mapped
// region grow the file and remap it with twice the address space.
type MmapStore struct {
	file *os.File
	data []byte // whole mapping, may be larger than the file
	size int64  // logical size of the store
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
	if end > s.size {
		if err := s.file.Truncate(end); err != nil {
			return 0, errors.Wrap(err, "failed to grow store")
		}
		if end > int64(len(s.data)) {
			if err := s.remap(end); err != nil {
				return 0, err
			}
		}
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
	if len(s.data) == 0 {
		return nil
	}
	return errors.Wrap(unix.Msync(s.data, unix.MS_SYNC), "msync failed")
}

func (s *MmapStore) Close() error {
	if s.file == nil {
		return nil
	}

	var err error
	if s.data != nil {
		err = errors.Wrap(unix.Munmap(s.data), "munmap failed")
		s.data = nil
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
		if err := unix.Munmap(s.data); err != nil {
			return errors.Wrap(err, "munmap failed")
		}
		s.data = nil
	}

	data, err := unix.Mmap(int(s.file.Fd()), 0, int(sz), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrap(os.NewSyscallError("mmap", err), "failed to map store")
	}
	s.data = data
	return nil
}
