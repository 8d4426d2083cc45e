package vptree

import "math"

type buildEntry[T any] struct {
	item T
	dist float32
}

// Rebuild folds every buffered item into the indexed layers by
// repartitioning the full item set from scratch. It picks the smallest
// depth at which all items fit into 2^depth-1 internal nodes plus leaf
// groups near the configured capacity, then carves the item slice with
// a queue-driven divide and conquer: each popped slice gives up its
// last element as the vantage point, the remainder is partitioned
// around an ideal split size with a linear-time selection, and the near
// and far halves are queued for the next level. Whatever is still
// queued once all internal nodes exist becomes the leaf groups, in
// queue order. Construction performs O(n log n) distance evaluations.
func (t *Tree[T]) Rebuild() {
	items := make([]buildEntry[T], 0, t.Len())
	for i := range t.nodes {
		items = append(items, buildEntry[T]{item: t.nodes[i].vantagePoint})
	}
	for _, item := range t.leaves {
		items = append(items, buildEntry[T]{item: item})
	}

	depth := 0
	if v := math.Log2(float64(len(items)+1) / float64(t.leafCapacity+1)); v > 0 {
		depth = int(math.Ceil(v))
	}
	groups := 1 << depth
	internal := groups - 1
	// Groups differ in size by at most one; base is the smaller width.
	base := (len(items) - internal) / groups

	t.depth = depth
	t.leafWidth = base + 1
	t.splitGroup = len(items) - internal - groups*base
	t.nodes = make([]node[T], 0, internal)
	t.leaves = make([]T, 0, len(items)-internal)

	// The queue gains two slices per emitted node, for 2*groups-1
	// pushes in total, so it never reallocates.
	queue := make([][]buildEntry[T], 1, 2*groups-1)
	queue[0] = items
	head := 0
	// Ideal subtree sizes for the current level, assuming all leaf
	// groups below hold base or base+1 items.
	idealLow := internal + groups*base
	idealHigh := idealLow + groups
	for len(t.nodes) < internal {
		if live := len(queue) - head; live&(live-1) == 0 {
			// A power-of-two queue length marks the next level down.
			idealLow = (idealLow - 1) / 2
			idealHigh = (idealHigh - 1) / 2
		}
		slice := queue[head]
		head++
		last := len(slice) - 1
		vantagePoint := slice[last].item
		rest := slice[:last]
		for i := range rest {
			rest[i].dist = t.distance(vantagePoint, rest[i].item)
		}
		split := len(rest) - idealLow
		if idealHigh < split {
			split = idealHigh
		}
		// Everything left of split ends up no farther from the vantage
		// point than the item at split, whose distance is the radius.
		selectNth(rest, split)
		queue = append(queue, rest[:split], rest[split:])
		t.nodes = append(t.nodes, node[T]{vantagePoint: vantagePoint, radius: rest[split].dist})
	}
	for _, group := range queue[head:] {
		for i := range group {
			t.leaves = append(t.leaves, group[i].item)
		}
	}
	t.dirty = false
}

// selectNth partially orders entries by distance so the entry at
// position n lands in its sorted place, with nothing greater before it
// and nothing smaller after. Average linear time (quickselect with a
// median-of-three pivot).
func selectNth[T any](entries []buildEntry[T], n int) {
	lo, hi := 0, len(entries)-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if entries[mid].dist < entries[lo].dist {
			entries[lo], entries[mid] = entries[mid], entries[lo]
		}
		if entries[hi].dist < entries[lo].dist {
			entries[lo], entries[hi] = entries[hi], entries[lo]
		}
		if entries[hi].dist < entries[mid].dist {
			entries[mid], entries[hi] = entries[hi], entries[mid]
		}
		pivot := entries[mid].dist

		i, j := lo, hi
		for i <= j {
			for entries[i].dist < pivot {
				i++
			}
			for entries[j].dist > pivot {
				j--
			}
			if i <= j {
				entries[i], entries[j] = entries[j], entries[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}
