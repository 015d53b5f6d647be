// Package header implements the table meta header stored at offset 0 of the
// backing store, in front of the root node on page 0.
package header

import (
	"bytes"
	"encoding/binary"
	"io"

	"go-pagedb/pkg/column"
	"go-pagedb/pkg/types"
	"go-pagedb/util/binio"

	"github.com/pkg/errors"
)

const (
	Magic = "magic"

	magicSz     = 8 // 5 magic bytes + 3 padding
	versionSz   = 3 * 4
	pageSizeSz  = 4
	pageCountSz = 8

	versionOffset  = magicSz
	pageSizeOffset = versionOffset + versionSz

	// PageCountOffset is where the page count lives. It is the only field
	// rewritten after creation.
	PageCountOffset = pageSizeOffset + pageSizeSz

	fixedSz = PageCountOffset + pageCountSz

	MinPageSize = 64
	MaxPageSize = 1 << 20
)

// Version is written into every new header. Only headers with the same
// major version can be read.
var Version = [3]int32{0, 0, 1}

var bin = binary.LittleEndian

var ErrInvalidPageSize = errors.New("page size must be a power of two")

// Header is the table-level descriptor.
type Header struct {
	Version    [3]int32
	PageSize   uint32
	PageCount  uint64
	Schema     column.Schema
	PrimaryKey []string
}

// New builds a header for a fresh table holding a single page.
func New(schema column.Schema, pk []string, pageSize int) (*Header, error) {
	if !ValidPageSize(pageSize) {
		return nil, errors.Wrapf(ErrInvalidPageSize, "page_size=%d", pageSize)
	}
	if err := schema.Check(); err != nil {
		return nil, err
	}
	if _, err := schema.KeyIndexes(pk); err != nil {
		return nil, err
	}

	return &Header{
		Version:    Version,
		PageSize:   uint32(pageSize),
		PageCount:  1,
		Schema:     schema.Copy(),
		PrimaryKey: append([]string{}, pk...),
	}, nil
}

func ValidPageSize(sz int) bool {
	return sz >= MinPageSize && sz <= MaxPageSize && sz&(sz-1) == 0
}

// Size returns the encoded size of the header. It depends on the number of
// columns and the length of their names.
func (h *Header) Size() int {
	return fixedSz + column.SchemaSize(h.Schema, h.PrimaryKey)
}

// WriteTo serializes the header and returns the number of bytes written.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)

	magic := [magicSz]byte{}
	copy(magic[:], Magic)
	bw.Bytes(magic[:])
	for _, v := range h.Version {
		bw.Int32(v)
	}
	bw.Uint32(h.PageSize)
	bw.Uint64(h.PageCount)

	schema, err := column.EncodeSchema(h.Schema, h.PrimaryKey)
	if err != nil {
		return bw.N(), err
	}
	bw.Bytes(schema)

	return bw.N(), errors.Wrap(bw.Err(), "failed to write meta header")
}

func (h *Header) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, h.Size()))
	if _, err := h.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read parses a header from r, which must be positioned at offset 0 of the
// store.
func Read(r io.Reader) (*Header, error) {
	br := binio.NewReader(r, 0)

	magic := br.Bytes(magicSz)
	if br.Err() == nil && (string(magic[:len(Magic)]) != Magic || !isZero(magic[len(Magic):])) {
		return nil, br.Fail(0)
	}

	h := &Header{}
	for i := range h.Version {
		h.Version[i] = br.Int32()
	}
	if br.Err() == nil && h.Version[0] != Version[0] {
		return nil, br.Fail(versionOffset)
	}

	h.PageSize = br.Uint32()
	if br.Err() == nil && !ValidPageSize(int(h.PageSize)) {
		return nil, br.Fail(pageSizeOffset)
	}

	h.PageCount = br.Uint64()
	if br.Err() == nil && h.PageCount == 0 {
		return nil, br.Fail(PageCountOffset)
	}
	if err := br.Err(); err != nil {
		return nil, err
	}

	schema, pk, err := column.DecodeSchema(br)
	if err != nil {
		return nil, err
	}
	h.Schema = schema
	h.PrimaryKey = pk

	if h.Size() > int(h.PageSize) {
		return nil, br.Fail(fixedSz)
	}
	return h, nil
}

// ReadAt parses the header at offset 0 of ra.
func ReadAt(ra io.ReaderAt) (*Header, error) {
	return Read(io.NewSectionReader(ra, 0, MaxPageSize))
}

// WritePageCount rewrites the page count field in place.
func WritePageCount(w io.WriterAt, count uint64) error {
	buf := make([]byte, pageCountSz)
	bin.PutUint64(buf, count)
	_, err := w.WriteAt(buf, PageCountOffset)
	return errors.Wrap(err, "failed to write page count")
}

// KeyKinds returns the kinds of the primary key columns in key order.
func (h *Header) KeyKinds() []types.Kind {
	kinds := make([]types.Kind, len(h.PrimaryKey))
	for i, name := range h.PrimaryKey {
		kinds[i] = h.Schema[h.Schema.Index(name)].Kind
	}
	return kinds
}

// KeyIndexes returns the schema positions of the primary key columns.
func (h *Header) KeyIndexes() []int {
	idx := make([]int, len(h.PrimaryKey))
	for i, name := range h.PrimaryKey {
		idx[i] = h.Schema.Index(name)
	}
	return idx
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
