// Package bptree implements an on-disk B+ tree that stores table rows keyed
// on their primary key. Every node occupies one page of the pager. The root
// always lives on page 0 right after the table header, so its location never
// has to be recorded.
package bptree

import (
	"encoding/binary"
	"fmt"
	"strings"

	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/header"
	"go-pagedb/pkg/pager"
	"go-pagedb/pkg/types"
	"go-pagedb/util/helpers"
	"go-pagedb/util/logger"
	"go-pagedb/util/stl"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

// minRootSpace is the least room page 0 must leave for the root node.
const minRootSpace = 32

var ErrPageTooSmall = errors.New("page too small")

// BPlusTree represents an on-disk B+ tree. Nodes are read from the pager on
// every access; nothing is cached between calls.
type BPlusTree struct {
	pager  *pager.Pager
	layout *layout
	fill   float64
	height int
	log    *logrus.Entry
}

// frame is one step of a descent: the internal node and the index of the
// child that was followed.
type frame struct {
	node *node
	idx  int
}

// Init writes an empty root leaf to page 0 of a freshly created table.
func Init(p *pager.Pager, h *header.Header, opts *Options) (*BPlusTree, error) {
	tree, err := newTree(p, h, opts)
	if err != nil {
		return nil, err
	}

	if err := tree.write(newLeaf(0)); err != nil {
		return nil, errors.Wrap(err, "failed to write root")
	}
	tree.height = 1
	return tree, nil
}

// Open loads the tree of an existing table and computes its height by
// following the leftmost path down to a leaf.
func Open(p *pager.Pager, h *header.Header, opts *Options) (*BPlusTree, error) {
	tree, err := newTree(p, h, opts)
	if err != nil {
		return nil, err
	}

	n, err := tree.fetch(0)
	if err != nil {
		return nil, err
	}
	tree.height = 1
	for !n.isLeaf() {
		if uint64(tree.height) > p.Count() {
			return nil, customerrors.NewDecodeError(p.Offset(n.id))
		}
		if n, err = tree.fetch(n.children[0]); err != nil {
			return nil, err
		}
		tree.height++
	}
	return tree, nil
}

// CheckRoom verifies that page 0 leaves enough room for the root behind
// the header. Returns ErrPageTooSmall otherwise.
func CheckRoom(h *header.Header) error {
	return layoutOf(h).checkRoom()
}

func layoutOf(h *header.Header) *layout {
	return &layout{
		pageSize: int(h.PageSize),
		headerSz: h.Size(),
		keyKinds: h.KeyKinds(),
		rowKinds: h.Schema.Kinds(),
	}
}

func (l *layout) checkRoom() error {
	if room := l.capacity(0) - childPtrSz; room < minRootSpace {
		return errors.Wrapf(ErrPageTooSmall, "header of %d bytes leaves %d bytes for the root in a page of %d", l.headerSz, room, l.pageSize)
	}
	return nil
}

func newTree(p *pager.Pager, h *header.Header, opts *Options) (*BPlusTree, error) {
	l := layoutOf(h)

	if p.PageSize() != l.pageSize {
		return nil, errors.Errorf("pager page size %d does not match header page size %d", p.PageSize(), l.pageSize)
	} else if err := l.checkRoom(); err != nil {
		return nil, err
	}

	return &BPlusTree{
		pager:  p,
		layout: l,
		fill:   opts.fillFactor(),
		log:    logger.With("bptree"),
	}, nil
}

// Height returns the number of levels, 1 for a lone root leaf.
func (tree *BPlusTree) Height() int { return tree.height }

// MaxEntrySize is the largest encoded leaf entry (key plus row) accepted.
// It is half of an empty page so that any overflowing node can be split
// into two nodes that fit.
func (tree *BPlusTree) MaxEntrySize() int {
	return (tree.layout.pageSize - prologueSz) / 2
}

// MaxSeparatorSize is the largest encoded internal entry accepted. The root
// page must be able to hold three of them.
func (tree *BPlusTree) MaxSeparatorSize() int {
	return (tree.layout.capacity(0) - childPtrSz) / 3
}

// Get fetches the row stored under key.
// Returns customerrors.ErrKeyNotFound if there is none.
func (tree *BPlusTree) Get(key types.Key) (types.Row, error) {
	n, err := tree.fetch(0)
	if err != nil {
		return nil, err
	}

	for depth := 1; !n.isLeaf(); depth++ {
		if uint64(depth) > tree.pager.Count() {
			return nil, customerrors.NewDecodeError(tree.pager.Offset(n.id))
		}
		if n, err = tree.fetch(n.children[n.childIndex(key)]); err != nil {
			return nil, err
		}
	}

	idx, found := n.search(key)
	if !found {
		return nil, errors.Wrapf(customerrors.ErrKeyNotFound, "key=%v", key)
	}
	return n.entries[idx].row, nil
}

// Put inserts the row under key. Size limits and duplicates are checked
// before any page is written.
func (tree *BPlusTree) Put(key types.Key, row types.Row) error {
	e := entry{key: key.Copy(), row: row.Copy()}

	if sz := tree.layout.entrySize(nodeLeaf, e); sz > tree.MaxEntrySize() {
		return errors.Wrapf(customerrors.ErrRecordTooLarge, "entry of %d bytes, limit is %d", sz, tree.MaxEntrySize())
	}
	if sz := tree.layout.entrySize(nodeInternal, entry{key: e.key}); sz > tree.MaxSeparatorSize() {
		return errors.Wrapf(customerrors.ErrRecordTooLarge, "key of %d bytes, limit is %d", sz, tree.MaxSeparatorSize())
	}

	path := stl.NewStack[frame]()
	n, err := tree.fetch(0)
	if err != nil {
		return err
	}
	for !n.isLeaf() {
		if uint64(path.Size()) >= tree.pager.Count() {
			return customerrors.NewDecodeError(tree.pager.Offset(n.id))
		}
		idx := n.childIndex(e.key)
		path.Push(frame{node: n, idx: idx})
		if n, err = tree.fetch(n.children[idx]); err != nil {
			return err
		}
	}

	idx, found := n.search(e.key)
	if found {
		return errors.Wrapf(customerrors.ErrKeyExists, "key=%v", e.key)
	}

	n.insertEntry(idx, e)
	return tree.rebalance(n, path)
}

// rebalance writes n, splitting it first if needed. Every split promotes one
// key into the parent taken from path, which may overflow in turn.
func (tree *BPlusTree) rebalance(n *node, path stl.Stack[frame]) error {
	for tree.needsSplit(n) {
		parent, err := path.Pop()
		if err != nil {
			return tree.splitRoot(n)
		}

		sibling, sep, err := tree.split(n)
		if err != nil {
			return err
		}

		p := parent.node
		p.insertEntry(parent.idx, entry{key: sep})
		p.insertChild(parent.idx+1, sibling)
		n = p
	}
	return tree.write(n)
}

// needsSplit reports whether n overflows its page or fills more of it than
// the fill factor allows. Nodes too small to split in a useful way are only
// split on overflow.
func (tree *BPlusTree) needsSplit(n *node) bool {
	free := tree.layout.freeSpace(n)
	if free < 0 {
		return true
	}

	minEntries := 2
	if !n.isLeaf() {
		minEntries = 3
	}
	if len(n.entries) < minEntries {
		return false
	}

	capacity := tree.layout.capacity(n.id)
	return float64(capacity-free) > tree.fill*float64(capacity)
}

// split moves the upper part of a non-root node to a new page. It returns
// the new page and the key to promote into the parent.
func (tree *BPlusTree) split(n *node) (uint32, types.Key, error) {
	left, right, sep, err := tree.partition(n)
	if err != nil {
		return 0, nil, err
	}

	if right.id, err = tree.pager.Alloc(); err != nil {
		return 0, nil, err
	}
	left.id = n.id

	if err := tree.write(right); err != nil {
		return 0, nil, err
	}
	if err := tree.write(left); err != nil {
		return 0, nil, err
	}

	tree.log.Debugf("split page %d: %d entries stay, %d moved to page %d", left.id, len(left.entries), len(right.entries), right.id)
	return right.id, sep, nil
}

// splitRoot moves the content of page 0 into new pages and turns page 0
// into an internal node above them, growing the tree by one level.
func (tree *BPlusTree) splitRoot(n *node) error {
	var root *node
	if n.isLeaf() && len(n.entries) == 1 {
		// a single entry that fits a fresh page but not page 0
		id, err := tree.pager.Alloc()
		if err != nil {
			return err
		}
		if err := tree.write(&node{id: id, typ: nodeLeaf, entries: n.entries}); err != nil {
			return err
		}
		root = newInternal(0, id)
	} else {
		left, right, sep, err := tree.partition(n)
		if err != nil {
			return err
		}
		if left.id, err = tree.pager.Alloc(); err != nil {
			return err
		}
		if right.id, err = tree.pager.Alloc(); err != nil {
			return err
		}
		if err := tree.write(left); err != nil {
			return err
		}
		if err := tree.write(right); err != nil {
			return err
		}
		root = newInternal(0, left.id, right.id)
		root.entries = []entry{{key: sep}}
	}

	if err := tree.write(root); err != nil {
		return err
	}
	tree.height++
	tree.log.Debugf("root split, children=%v height=%d", root.children, tree.height)
	return nil
}

// partition divides the entries of n into two nodes that each fit an empty
// page, choosing the point that balances their byte sizes. Leaves promote a
// copy of the first key on the right; internal nodes promote the middle key
// itself.
func (tree *BPlusTree) partition(n *node) (left, right *node, sep types.Key, err error) {
	sizes := make([]int, len(n.entries))
	total := 0
	for i, e := range n.entries {
		sizes[i] = tree.layout.entrySize(n.typ, e)
		total += sizes[i]
	}

	// page 1 stands for any page other than page 0
	limit := tree.layout.capacity(1)
	best, bestSz := -1, 0
	leftSz := 0
	for m := 0; m < len(n.entries); m++ {
		var l, r int
		if n.isLeaf() {
			l, r = leftSz, total-leftSz
		} else {
			l, r = childPtrSz+leftSz, childPtrSz+total-leftSz-sizes[m]
		}
		leftSz += sizes[m]

		if n.isLeaf() && m == 0 {
			continue
		}
		if sz := helpers.Max(l, r); sz <= limit && (best < 0 || sz < bestSz) {
			best, bestSz = m, sz
		}
	}
	if best < 0 {
		return nil, nil, nil, errors.Errorf("no split point for page %d with %d entries", n.id, len(n.entries))
	}

	if n.isLeaf() {
		left = &node{typ: nodeLeaf, entries: slices.Clone(n.entries[:best])}
		right = &node{typ: nodeLeaf, entries: slices.Clone(n.entries[best:])}
		return left, right, right.entries[0].key.Copy(), nil
	}

	left = &node{
		typ:      nodeInternal,
		entries:  slices.Clone(n.entries[:best]),
		children: slices.Clone(n.children[:best+1]),
	}
	right = &node{
		typ:      nodeInternal,
		entries:  slices.Clone(n.entries[best+1:]),
		children: slices.Clone(n.children[best+1:]),
	}
	return left, right, n.entries[best].key, nil
}

// fetch reads and decodes the node stored in page id.
func (tree *BPlusTree) fetch(id uint32) (*node, error) {
	d, err := tree.pager.Read(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch node %d", id)
	}
	return tree.layout.decode(id, d, tree.pager.Offset(id), tree.pager.Count())
}

// write encodes n into its page. The header in front of the root is never
// touched.
func (tree *BPlusTree) write(n *node) error {
	buf, err := tree.layout.encode(n)
	if err != nil {
		return errors.Wrap(err, "failed to encode node")
	}
	return tree.pager.Write(n.id, tree.layout.base(n.id), buf)
}

// Stats summarizes the shape of the tree.
type Stats struct {
	Height    int
	Leaves    int
	Internals int
	Entries   int
}

// Check walks the whole tree and verifies that keys are sorted inside every
// node and fall within the bounds set by the separators above them, that all
// leaves sit at the same depth and that every node fits its page.
func (tree *BPlusTree) Check() (Stats, error) {
	stats := Stats{Height: tree.height}
	leafDepth := 0

	var walk func(id uint32, lo, hi types.Key, depth int) error
	walk = func(id uint32, lo, hi types.Key, depth int) error {
		if depth > tree.height {
			return errors.Errorf("page %d below the expected height %d", id, tree.height)
		}
		n, err := tree.fetch(id)
		if err != nil {
			return err
		}
		if free := tree.layout.freeSpace(n); free < 0 {
			return errors.Errorf("page %d overflows by %d bytes", id, -free)
		}

		for i, e := range n.entries {
			if i > 0 && types.CompareKeys(n.entries[i-1].key, e.key) >= 0 {
				return errors.Errorf("page %d: keys %v and %v out of order", id, n.entries[i-1].key, e.key)
			}
			if lo != nil && types.CompareKeys(e.key, lo) < 0 {
				return errors.Errorf("page %d: key %v below lower bound %v", id, e.key, lo)
			}
			if hi != nil && types.CompareKeys(e.key, hi) >= 0 {
				return errors.Errorf("page %d: key %v not below upper bound %v", id, e.key, hi)
			}
		}

		if n.isLeaf() {
			if leafDepth == 0 {
				leafDepth = depth
			} else if leafDepth != depth {
				return errors.Errorf("leaf %d at depth %d, expected %d", id, depth, leafDepth)
			}
			stats.Leaves++
			stats.Entries += len(n.entries)
			return nil
		}

		stats.Internals++
		for i, child := range n.children {
			childLo, childHi := lo, hi
			if i > 0 {
				childLo = n.entries[i-1].key
			}
			if i < len(n.entries) {
				childHi = n.entries[i].key
			}
			if err := walk(child, childLo, childHi, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, nil, nil, 1); err != nil {
		return stats, err
	}
	if leafDepth != tree.height {
		return stats, errors.Errorf("leaves at depth %d, height is %d", leafDepth, tree.height)
	}
	return stats, nil
}

// String renders the tree level by level, for debugging.
func (tree *BPlusTree) String() string {
	sb := &strings.Builder{}
	var render func(id uint32, indent int)
	render = func(id uint32, indent int) {
		n, err := tree.fetch(id)
		if err != nil {
			fmt.Fprintf(sb, "%*s<error: %v>\n", indent, "", err)
			return
		}
		fmt.Fprintf(sb, "%*s%s\n", indent, "", n)
		for _, child := range n.children {
			render(child, indent+4)
		}
	}
	render(0, 0)
	return sb.String()
}
