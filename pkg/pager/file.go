package pager

import (
	"os"

	"github.com/pkg/errors"
)

// FileStore does page granular I/O on a regular file with pread/pwrite.
type FileStore struct {
	file *os.File
}

// OpenFile opens or creates the named file.
func OpenFile(name string, perm os.FileMode) (*FileStore, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, perm)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open '%s'", name)
	}
	return &FileStore{file: f}, nil
}

func (s *FileStore) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *FileStore) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

func (s *FileStore) Size() (int64, error) {
	fi, err := s.file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "failed to stat store")
	}
	return fi.Size(), nil
}

func (s *FileStore) Sync() error {
	return errors.Wrap(s.file.Sync(), "failed to sync store")
}

func (s *FileStore) Close() error {
	return errors.Wrap(s.file.Close(), "failed to close store")
}
