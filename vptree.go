package vptree

import "math"

// DefaultLeafCapacity is the target leaf group width used when New or
// Build receives a capacity below the supported minimum. Wider leaves trade traversal
// depth for longer linear scans at the bottom.
const DefaultLeafCapacity = 50

// maxDistance is the "no bound yet" sentinel.
const maxDistance = math.MaxFloat32

// Func computes the distance between two items. Implementations must be
// pure and metric-respecting; the tree never validates this, and its
// behavior under a non-metric function is undefined.
type Func[T any] func(a, b T) float32

type node[T any] struct {
	vantagePoint T
	radius       float32
}

// Tree is a vantage-point tree over items of type T. It owns copies of
// the items handed to it. The zero value is not usable; construct with
// New or Build.
type Tree[T any] struct {
	distance Func[T]
	// nodes is a complete implicit binary tree; children of node i sit
	// at 2i+1 (near) and 2i+2 (far).
	nodes []node[T]
	// leaves holds all items at final depth while the tree is clean,
	// plus any buffered insertions while it is dirty.
	leaves []T
	// leafWidth is the larger leaf group width. The first splitGroup
	// groups have it; every group after holds one item less.
	leafWidth  int
	splitGroup int
	// depth counts internal-node layers, excluding the leaf layer. It
	// sizes traversal stacks.
	depth        int
	leafCapacity int
	dirty        bool
}

// New returns an empty tree using the given distance function.
// leafCapacity sets the target leaf group width; values below 3 fall
// back to DefaultLeafCapacity.
func New[T any](distance Func[T], leafCapacity int) *Tree[T] {
	if leafCapacity < 3 {
		leafCapacity = DefaultLeafCapacity
	}
	return &Tree[T]{
		distance:     distance,
		leafCapacity: leafCapacity,
		dirty:        true,
	}
}

// Build constructs a tree eagerly from an initial batch of items, so the
// first query pays no rebuild cost.
func Build[T any](items []T, distance Func[T], leafCapacity int) *Tree[T] {
	t := New(distance, leafCapacity)
	t.leaves = append(t.leaves, items...)
	t.Rebuild()
	return t
}

// Insert buffers a single item. Cost is O(1); the item is folded into
// the indexed layers by the next query or Rebuild.
func (t *Tree[T]) Insert(item T) {
	t.leaves = append(t.leaves, item)
	t.dirty = true
}

// Extend buffers a batch of items.
func (t *Tree[T]) Extend(items []T) {
	t.leaves = append(t.leaves, items...)
	t.dirty = true
}

// Len returns the number of stored items, counting buffered items that
// are not yet indexed.
func (t *Tree[T]) Len() int { return len(t.nodes) + len(t.leaves) }
