package vptree

import "sort"

// Neighbor pairs a stored item with its distance to the query needle.
type Neighbor[T any] struct {
	Distance float32
	Item     T
}

// frontier records a deferred branch together with the needle's
// distance to the splitting boundary that separates it from the
// explored side.
type frontier struct {
	index int
	gap   float32
}

// collector is the per-operation acceptance policy fed by traverse.
type collector interface {
	// offer presents the candidate at the given storage position.
	offer(pos int, dist float32)
	// viable reports whether a branch behind the given boundary gap
	// can still contain an acceptable candidate.
	viable(gap float32) bool
}

// traverse runs the shared branch-and-bound walk from the root,
// rebuilding first if buffered insertions exist. Descent always takes
// the child on the needle's side of the boundary first and defers the
// other with its boundary gap; by the triangle inequality, a deferred
// branch can hold a better candidate only while the policy's bound
// still reaches across that gap.
func (t *Tree[T]) traverse(needle T, c collector) {
	if t.dirty {
		t.Rebuild()
	}
	index := 0
	unexplored := make([]frontier, 0, t.depth)
	for {
		for index < len(t.nodes) {
			n := &t.nodes[index]
			d := t.distance(needle, n.vantagePoint)
			c.offer(index, d)
			if d < n.radius {
				unexplored = append(unexplored, frontier{index: 2*index + 2, gap: n.radius - d})
				index = 2*index + 1
			} else {
				unexplored = append(unexplored, frontier{index: 2*index + 1, gap: d - n.radius})
				index = 2*index + 2
			}
		}
		t.scanLeaf(index, needle, c)

		index = -1
		for len(unexplored) > 0 {
			f := unexplored[len(unexplored)-1]
			unexplored = unexplored[:len(unexplored)-1]
			if c.viable(f.gap) {
				index = f.index
				break
			}
		}
		if index < 0 {
			return
		}
	}
}

// scanLeaf offers every item of the leaf group addressed by pos, a
// storage position at or past the internal-node region.
func (t *Tree[T]) scanLeaf(pos int, needle T, c collector) {
	start, end := t.leafRange(pos - len(t.nodes))
	for i := start; i < end; i++ {
		c.offer(len(t.nodes)+i, t.distance(needle, t.leaves[i]))
	}
}

// leafRange converts a logical group index into leaf-array bounds. The
// first splitGroup groups hold leafWidth items, every later group one
// less; nothing per group is stored.
func (t *Tree[T]) leafRange(group int) (start, end int) {
	if group < t.splitGroup {
		start = group * t.leafWidth
		return start, start + t.leafWidth
	}
	start = t.splitGroup*t.leafWidth + (group-t.splitGroup)*(t.leafWidth-1)
	return start, start + t.leafWidth - 1
}

// itemAt resolves a storage position: positions below the internal-node
// count address vantage points, the rest leaf items.
func (t *Tree[T]) itemAt(pos int) T {
	if pos < len(t.nodes) {
		return t.nodes[pos].vantagePoint
	}
	return t.leaves[pos-len(t.nodes)]
}

type candidate struct {
	dist float32
	pos  int
}

type nearestCollector struct {
	pos  int
	dist float32
}

func (c *nearestCollector) offer(pos int, d float32) {
	if d < c.dist {
		c.pos, c.dist = pos, d
	}
}

func (c *nearestCollector) viable(gap float32) bool { return c.dist > gap }

// Nearest returns the stored item closest to needle and its distance.
// The second result is false when the tree is empty.
func (t *Tree[T]) Nearest(needle T) (Neighbor[T], bool) {
	c := nearestCollector{dist: maxDistance}
	t.traverse(needle, &c)
	if c.dist == maxDistance {
		var zero Neighbor[T]
		return zero, false
	}
	return Neighbor[T]{Distance: c.dist, Item: t.itemAt(c.pos)}, true
}

type knnCollector struct {
	k       int
	entries []candidate
}

func (c *knnCollector) offer(pos int, d float32) {
	if len(c.entries) < c.k {
		c.entries = append(c.entries, candidate{dist: d, pos: pos})
		if len(c.entries) == c.k {
			// Order starts to matter once the list is full.
			sortCandidates(c.entries)
		}
		return
	}
	if d < c.entries[len(c.entries)-1].dist {
		// Displace the current worst, keeping the list sorted.
		at := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].dist >= d })
		copy(c.entries[at+1:], c.entries[at:])
		c.entries[at] = candidate{dist: d, pos: pos}
	}
}

func (c *knnCollector) viable(gap float32) bool {
	return len(c.entries) < c.k || c.entries[len(c.entries)-1].dist > gap
}

// KNearest returns up to k stored items closest to needle, ascending by
// distance. Fewer than k items are returned only when the tree holds
// fewer; k <= 0 yields nil.
func (t *Tree[T]) KNearest(needle T, k int) []Neighbor[T] {
	if k <= 0 {
		return nil
	}
	// The result can never exceed the item count, so an oversized k must
	// not size the allocation.
	limit := k
	if n := t.Len(); n < limit {
		limit = n
	}
	c := knnCollector{k: k, entries: make([]candidate, 0, limit)}
	t.traverse(needle, &c)
	if len(c.entries) < k {
		sortCandidates(c.entries)
	}
	return t.resolve(c.entries)
}

type radiusCollector struct {
	threshold float32
	entries   []candidate
}

func (c *radiusCollector) offer(pos int, d float32) {
	if d <= c.threshold {
		c.entries = append(c.entries, candidate{dist: d, pos: pos})
	}
}

func (c *radiusCollector) viable(gap float32) bool { return c.threshold >= gap }

// WithinRadius returns every stored item whose distance to needle is at
// most threshold, ascending by distance.
func (t *Tree[T]) WithinRadius(needle T, threshold float32) []Neighbor[T] {
	c := radiusCollector{threshold: threshold}
	t.traverse(needle, &c)
	sortCandidates(c.entries)
	return t.resolve(c.entries)
}

func sortCandidates(entries []candidate) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].dist < entries[j].dist })
}

func (t *Tree[T]) resolve(entries []candidate) []Neighbor[T] {
	out := make([]Neighbor[T], len(entries))
	for i, e := range entries {
		out[i] = Neighbor[T]{Distance: e.dist, Item: t.itemAt(e.pos)}
	}
	return out
}
