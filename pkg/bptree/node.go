package bptree

import (
	"fmt"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/types"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

type nodeType int8

const (
	nodeInternal nodeType = 0
	nodeLeaf     nodeType = 1
)

const (
	// type tag, item count, free space, offset to end, offset to free
	prologueSz = 1 + 4 + 4 + 4 + 4

	// child page reference width
	childPtrSz = 4

	// kind tag written in front of every key column of an internal entry
	keyTagSz = 1
)

type entry struct {
	key types.Key
	row types.Row // nil in internal nodes
}

// node represents an internal or leaf node in the B+ tree. An internal node
// with n entries has n+1 children: children[i] holds keys below
// entries[i].key and children[i+1] holds keys from entries[i].key upwards.
type node struct {
	id       uint32
	typ      nodeType
	entries  []entry
	children []uint32
}

func newLeaf(id uint32) *node {
	return &node{id: id, typ: nodeLeaf}
}

func newInternal(id uint32, children ...uint32) *node {
	return &node{id: id, typ: nodeInternal, children: children}
}

func (n *node) isLeaf() bool { return n.typ == nodeLeaf }

// search performs a binary search in the node entries for the given key and
// returns the index where it is or should be, and whether it exists.
func (n *node) search(key types.Key) (idx int, found bool) {
	return slices.BinarySearchFunc(n.entries, key, func(e entry, k types.Key) int {
		return types.CompareKeys(e.key, k)
	})
}

// childIndex returns the index of the child whose range contains key.
func (n *node) childIndex(key types.Key) int {
	idx, found := n.search(key)
	if found {
		return idx + 1
	}
	return idx
}

// insertEntry inserts the entry at the given index into the node.
func (n *node) insertEntry(idx int, e entry) {
	n.entries = append(n.entries, entry{})
	copy(n.entries[idx+1:], n.entries[idx:])
	n.entries[idx] = e
}

// insertChild adds the given child at appropriate location under the node.
func (n *node) insertChild(idx int, child uint32) {
	n.children = append(n.children, 0)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
}

func (n *node) String() string {
	s := "{"
	for _, e := range n.entries {
		s += fmt.Sprintf("%v ", e.key)
	}
	s += "} "
	s += fmt.Sprintf("[page=%d, size=%d, leaf=%t, children=%v]", n.id, len(n.entries), n.isLeaf(), n.children)
	return s
}

// layout describes how the nodes of one tree are laid out in pages.
type layout struct {
	pageSize int
	headerSz int // bytes in front of the root node on page 0
	keyKinds []types.Kind
	rowKinds []types.Kind
}

// base returns the page offset where the node of page id starts.
func (l *layout) base(id uint32) int {
	if id == 0 {
		return l.headerSz
	}
	return 0
}

// capacity returns the bytes available to a node after its prologue.
func (l *layout) capacity(id uint32) int {
	return l.pageSize - l.base(id) - prologueSz
}

func (l *layout) entrySize(typ nodeType, e entry) int {
	if typ == nodeLeaf {
		return types.SizeOf(e.key) + types.SizeOf(e.row)
	}
	return len(e.key)*keyTagSz + types.SizeOf(e.key) + childPtrSz
}

func (l *layout) payloadSize(n *node) int {
	sz := 0
	if !n.isLeaf() {
		sz += childPtrSz // leftmost child
	}
	for _, e := range n.entries {
		sz += l.entrySize(n.typ, e)
	}
	return sz
}

// offsetToFree is the page offset of the first byte after the node.
func (l *layout) offsetToFree(n *node) int {
	return l.base(n.id) + prologueSz + l.payloadSize(n)
}

// freeSpace is negative when the node does not fit its page.
func (l *layout) freeSpace(n *node) int {
	return l.pageSize - l.offsetToFree(n)
}

// encode returns the bytes of the node region of the page, from base to
// the end of the page.
func (l *layout) encode(n *node) ([]byte, error) {
	base := l.base(n.id)
	free := l.freeSpace(n)
	if free < 0 {
		return nil, errors.Errorf("node of page %d overflows by %d bytes", n.id, -free)
	}
	if !n.isLeaf() && len(n.children) != len(n.entries)+1 {
		return nil, errors.Errorf("internal node of page %d has %d entries and %d children", n.id, len(n.entries), len(n.children))
	}

	buf := make([]byte, l.pageSize-base)
	offset := 0

	buf[offset] = byte(n.typ)
	offset++

	bin.PutUint32(buf[offset:offset+4], uint32(len(n.entries)))
	offset += 4

	bin.PutUint32(buf[offset:offset+4], uint32(free))
	offset += 4

	bin.PutUint32(buf[offset:offset+4], uint32(l.pageSize))
	offset += 4

	bin.PutUint32(buf[offset:offset+4], uint32(l.offsetToFree(n)))
	offset += 4

	if n.isLeaf() {
		for _, e := range n.entries {
			for _, v := range e.key {
				offset += types.Put(buf[offset:], v)
			}
			for _, v := range e.row {
				offset += types.Put(buf[offset:], v)
			}
		}
		return buf, nil
	}

	bin.PutUint32(buf[offset:offset+4], n.children[0])
	offset += childPtrSz

	for i, e := range n.entries {
		for _, v := range e.key {
			buf[offset] = byte(v.Kind())
			offset += keyTagSz
			offset += types.Put(buf[offset:], v)
		}
		bin.PutUint32(buf[offset:offset+4], n.children[i+1])
		offset += childPtrSz
	}
	return buf, nil
}

// decode parses the node of page id from the full page content d. start is
// the absolute store offset of the page and pageCount bounds child
// references. Any mismatch is reported as a DecodeError.
func (l *layout) decode(id uint32, d []byte, start int64, pageCount uint64) (*node, error) {
	base := l.base(id)
	offset := base
	fail := func(at int) error {
		return customerrors.NewDecodeError(start + int64(at))
	}

	if len(d) != l.pageSize || base+prologueSz > len(d) {
		return nil, fail(0)
	}

	typ := nodeType(int8(d[offset]))
	if typ != nodeInternal && typ != nodeLeaf {
		return nil, fail(offset)
	}
	offset++

	count := int(bin.Uint32(d[offset : offset+4]))
	countAt := offset
	offset += 4

	free := int(bin.Uint32(d[offset : offset+4]))
	freeAt := offset
	offset += 4

	if end := int(bin.Uint32(d[offset : offset+4])); end != l.pageSize {
		return nil, fail(offset)
	}
	offset += 4

	toFree := int(bin.Uint32(d[offset : offset+4]))
	if toFree < base+prologueSz || toFree > l.pageSize {
		return nil, fail(offset)
	}
	toFreeAt := offset
	offset += 4

	if free != l.pageSize-toFree {
		return nil, fail(freeAt)
	}
	if count > toFree-offset {
		return nil, fail(countAt)
	}

	readValue := func(kind types.Kind) (types.Value, error) {
		v, sz, err := types.Decode(kind, d[offset:toFree])
		if err != nil {
			return nil, fail(offset)
		}
		offset += sz
		return v, nil
	}
	readChild := func() (uint32, error) {
		if offset+childPtrSz > toFree {
			return 0, fail(offset)
		}
		child := bin.Uint32(d[offset : offset+4])
		if child == 0 || uint64(child) >= pageCount {
			return 0, fail(offset)
		}
		offset += childPtrSz
		return child, nil
	}

	n := &node{id: id, typ: typ}
	if typ == nodeLeaf {
		for i := 0; i < count; i++ {
			e := entry{
				key: make(types.Key, len(l.keyKinds)),
				row: make(types.Row, len(l.rowKinds)),
			}
			for j, kind := range l.keyKinds {
				v, err := readValue(kind)
				if err != nil {
					return nil, err
				}
				e.key[j] = v
			}
			for j, kind := range l.rowKinds {
				v, err := readValue(kind)
				if err != nil {
					return nil, err
				}
				e.row[j] = v
			}
			n.entries = append(n.entries, e)
		}
	} else {
		child, err := readChild()
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)

		for i := 0; i < count; i++ {
			e := entry{key: make(types.Key, len(l.keyKinds))}
			for j, kind := range l.keyKinds {
				if offset >= toFree || types.Kind(int8(d[offset])) != kind {
					return nil, fail(offset)
				}
				offset += keyTagSz

				v, err := readValue(kind)
				if err != nil {
					return nil, err
				}
				e.key[j] = v
			}

			child, err := readChild()
			if err != nil {
				return nil, err
			}
			n.entries = append(n.entries, e)
			n.children = append(n.children, child)
		}
	}

	if offset != toFree {
		return nil, fail(toFreeAt)
	}
	return n, nil
}
