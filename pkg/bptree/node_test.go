package bptree

import (
	"testing"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testLayout() *layout {
	return &layout{
		pageSize: 128,
		headerSz: 50,
		keyKinds: []types.Kind{types.KindInteger},
		rowKinds: []types.Kind{types.KindInteger, types.KindText},
	}
}

func greeting(id int32, text string) entry {
	return entry{
		key: types.Key{types.Integer(id)},
		row: types.Row{types.Integer(id), types.Text(text)},
	}
}

func separator(id int32) entry {
	return entry{key: types.Key{types.Integer(id)}}
}

// page returns the full page content holding n.
func page(t *testing.T, l *layout, n *node) []byte {
	t.Helper()
	buf, err := l.encode(n)
	require.NoError(t, err)
	require.Len(t, buf, l.pageSize-l.base(n.id))

	d := make([]byte, l.pageSize)
	copy(d[l.base(n.id):], buf)
	return d
}

func requireDecodeError(t *testing.T, err error, offset int64) {
	t.Helper()
	var decodeErr *customerrors.DecodeError
	require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
	require.Equal(t, offset, decodeErr.Offset)
}

func TestNodeLeafRoundTrip(t *testing.T) {
	l := testLayout()

	for _, id := range []uint32{0, 3} {
		n := newLeaf(id)
		n.entries = []entry{greeting(1, "hello"), greeting(2, ""), greeting(7, "hey there")}

		d := page(t, l, n)
		decoded, err := l.decode(id, d, int64(id)*128, 10)
		require.NoError(t, err)
		require.Equal(t, n, decoded)
	}
}

func TestNodeEmptyLeafRoundTrip(t *testing.T) {
	l := testLayout()
	n := newLeaf(0)

	d := page(t, l, n)
	require.Equal(t, byte(nodeLeaf), d[50])
	require.Equal(t, uint32(0), bin.Uint32(d[51:]))
	require.Equal(t, uint32(128-67), bin.Uint32(d[55:]))
	require.Equal(t, uint32(128), bin.Uint32(d[59:]))
	require.Equal(t, uint32(67), bin.Uint32(d[63:]))

	decoded, err := l.decode(0, d, 0, 1)
	require.NoError(t, err)
	require.Equal(t, n, decoded)
}

func TestNodeInternalRoundTrip(t *testing.T) {
	l := testLayout()

	n := newInternal(0, 1, 2, 3)
	n.entries = []entry{separator(10), separator(20)}

	d := page(t, l, n)
	require.Equal(t, byte(nodeInternal), d[50])
	require.Equal(t, uint32(2), bin.Uint32(d[51:]))
	require.Equal(t, uint32(1), bin.Uint32(d[67:]))
	require.Equal(t, byte(types.KindInteger), d[71])
	require.Equal(t, uint32(10), bin.Uint32(d[72:]))
	require.Equal(t, uint32(2), bin.Uint32(d[76:]))
	require.Equal(t, uint32(67+4+2*9), bin.Uint32(d[63:]))

	decoded, err := l.decode(0, d, 0, 4)
	require.NoError(t, err)
	require.Equal(t, n, decoded)

	// a root with a single child and no keys
	n = newInternal(0, 5)
	decoded, err = l.decode(0, page(t, l, n), 0, 6)
	require.NoError(t, err)
	require.Equal(t, n, decoded)
}

func TestNodeEncodeErrors(t *testing.T) {
	l := testLayout()

	n := newLeaf(0)
	n.entries = []entry{greeting(1, "a long greeting that does not fit"), greeting(2, "another long greeting")}
	_, err := l.encode(n)
	require.Error(t, err)

	n = newInternal(1, 2)
	n.entries = []entry{separator(1)}
	_, err = l.encode(n)
	require.Error(t, err)
}

func TestNodeDecodeErrors(t *testing.T) {
	l := testLayout()
	const start = 5 * 128

	leaf := newLeaf(5)
	leaf.entries = []entry{greeting(1, "hi")}

	internal := newInternal(5, 1, 2)
	internal.entries = []entry{separator(10)}

	tests := []struct {
		name    string
		node    *node
		corrupt func(d []byte)
		offset  int64
	}{
		{
			name:    "node type",
			node:    leaf,
			corrupt: func(d []byte) { d[0] = 7 },
			offset:  start,
		},
		{
			name:    "offset to end",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[9:], 64) },
			offset:  start + 9,
		},
		{
			name:    "offset to free out of page",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[13:], 200) },
			offset:  start + 13,
		},
		{
			name:    "free space mismatch",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[5:], 3) },
			offset:  start + 5,
		},
		{
			name:    "count too large",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[1:], 1000) },
			offset:  start + 1,
		},
		{
			name:    "truncated value",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[1:], 2) },
			offset:  start + 17 + 4 + 4 + 4 + 2,
		},
		{
			name:    "string longer than node",
			node:    leaf,
			corrupt: func(d []byte) { bin.PutUint32(d[17+8:], 100) },
			offset:  start + 17 + 8,
		},
		{
			name:    "leftmost child is page 0",
			node:    internal,
			corrupt: func(d []byte) { bin.PutUint32(d[17:], 0) },
			offset:  start + 17,
		},
		{
			name:    "key tag mismatch",
			node:    internal,
			corrupt: func(d []byte) { d[21] = byte(types.KindText) },
			offset:  start + 21,
		},
		{
			name:    "child beyond page count",
			node:    internal,
			corrupt: func(d []byte) { bin.PutUint32(d[26:], 9) },
			offset:  start + 26,
		},
		{
			name: "trailing bytes",
			node: internal,
			corrupt: func(d []byte) {
				bin.PutUint32(d[5:], bin.Uint32(d[5:])-1)
				bin.PutUint32(d[13:], bin.Uint32(d[13:])+1)
			},
			offset: start + 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := page(t, l, tt.node)
			tt.corrupt(d)
			_, err := l.decode(5, d, start, 6)
			requireDecodeError(t, err, tt.offset)
		})
	}

	_, err := l.decode(5, make([]byte, 100), start, 6)
	requireDecodeError(t, err, start)
}

func TestNodeSearch(t *testing.T) {
	n := newLeaf(1)
	n.entries = []entry{greeting(10, ""), greeting(20, ""), greeting(30, "")}

	idx, found := n.search(types.Key{types.Integer(20)})
	require.True(t, found)
	require.Equal(t, 1, idx)

	idx, found = n.search(types.Key{types.Integer(25)})
	require.False(t, found)
	require.Equal(t, 2, idx)

	idx, found = n.search(types.Key{types.Integer(-1)})
	require.False(t, found)
	require.Equal(t, 0, idx)

	in := newInternal(0, 1, 2, 3)
	in.entries = []entry{separator(10), separator(20)}

	require.Equal(t, 0, in.childIndex(types.Key{types.Integer(9)}))
	require.Equal(t, 1, in.childIndex(types.Key{types.Integer(10)}))
	require.Equal(t, 1, in.childIndex(types.Key{types.Integer(19)}))
	require.Equal(t, 2, in.childIndex(types.Key{types.Integer(20)}))
	require.Equal(t, 2, in.childIndex(types.Key{types.Integer(1000)}))
}

func TestNodeInsert(t *testing.T) {
	n := newInternal(0, 1, 3)
	n.entries = []entry{separator(30)}

	n.insertEntry(0, separator(10))
	n.insertChild(1, 2)
	require.Equal(t, []entry{separator(10), separator(30)}, n.entries)
	require.Equal(t, []uint32{1, 2, 3}, n.children)

	n.insertEntry(2, separator(40))
	n.insertChild(3, 4)
	require.Equal(t, []uint32{1, 2, 3, 4}, n.children)
	require.Len(t, n.entries, 3)
}
