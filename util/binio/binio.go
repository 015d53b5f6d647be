// Package binio provides little endian readers and writers that keep track of
// the absolute offset, so decode failures can point at the bad byte.
package binio

import (
	"encoding/binary"
	"io"

	"go-pagedb/pkg/customerrors"

	"github.com/pkg/errors"
)

var bin = binary.LittleEndian

// Reader reads fixed width fields from r. The first failed read is sticky
// and reported as a *customerrors.DecodeError at the offset where it began.
type Reader struct {
	r   io.Reader
	off int64
	err error
	buf [8]byte
}

// NewReader returns a reader whose offsets start at base.
func NewReader(r io.Reader, base int64) *Reader {
	return &Reader{r: r, off: base}
}

func (r *Reader) Offset() int64 { return r.off }

func (r *Reader) Err() error { return r.err }

// Fail records a decode error at offset unless an error is already set.
func (r *Reader) Fail(offset int64) error {
	if r.err == nil {
		r.err = customerrors.NewDecodeError(offset)
	}
	return r.err
}

func (r *Reader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.Fail(r.off)
		return nil
	}
	b := make([]byte, n)
	r.read(b)
	return b
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Uint8() uint8 {
	if r.read(r.buf[:1]) {
		return r.buf[0]
	}
	return 0
}

func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Uint32() uint32 {
	if r.read(r.buf[:4]) {
		return bin.Uint32(r.buf[:4])
	}
	return 0
}

func (r *Reader) Uint64() uint64 {
	if r.read(r.buf[:8]) {
		return bin.Uint64(r.buf[:8])
	}
	return 0
}

func (r *Reader) read(b []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.Fail(r.off)
		return false
	}
	r.off += int64(len(b))
	return true
}

// Writer writes fixed width fields to w and counts the bytes written.
// The first write error is sticky.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// N returns the number of bytes written so far.
func (w *Writer) N() int64 { return w.n }

func (w *Writer) Err() error { return w.err }

func (w *Writer) Bytes(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		w.err = errors.Wrap(err, "write failed")
	}
}

func (w *Writer) Int8(v int8) {
	w.Uint8(uint8(v))
}

func (w *Writer) Uint8(v uint8) {
	w.buf[0] = v
	w.Bytes(w.buf[:1])
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

func (w *Writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

func (w *Writer) Uint32(v uint32) {
	bin.PutUint32(w.buf[:4], v)
	w.Bytes(w.buf[:4])
}

func (w *Writer) Uint64(v uint64) {
	bin.PutUint64(w.buf[:8], v)
	w.Bytes(w.buf[:8])
}
