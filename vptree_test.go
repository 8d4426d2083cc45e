package vptree

import (
	"math"
	"math/rand"
	"testing"
)

type point struct {
	x, y float32
}

func euclidean(a, b point) float32 {
	dx := a.x - b.x
	dy := a.y - b.y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

func randomPoints(rng *rand.Rand, n int) []point {
	pts := make([]point, n)
	for i := range pts {
		pts[i] = point{x: rng.Float32() * 100, y: rng.Float32() * 100}
	}
	return pts
}

func TestLen_CountsBufferedItems(t *testing.T) {
	tree := New(euclidean, 3)
	tree.Extend([]point{{2, 3}, {0, 1}, {4, 5}})
	if got := tree.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	tree.Insert(point{9, 8})
	if got := tree.Len(); got != 4 {
		t.Fatalf("Len() after Insert = %d, want 4", got)
	}
	tree.Extend([]point{{19, 81}, {66, 36}})
	if got := tree.Len(); got != 6 {
		t.Fatalf("Len() after Extend = %d, want 6", got)
	}
}

func TestLen_AfterBuildAndInsert(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := Build(randomPoints(rng, 40), euclidean, 5)
	tree.Extend(randomPoints(rng, 13))
	if got := tree.Len(); got != 53 {
		t.Fatalf("Len() = %d, want 53 without querying", got)
	}
}

func TestRebuild_LayoutInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{0, 1, 2, 3, 4, 7, 8, 15, 16, 52, 100, 257} {
		pts := randomPoints(rng, n)
		tree := Build(pts, euclidean, 3)

		internal := 1<<tree.depth - 1
		if len(tree.nodes) != internal {
			t.Errorf("n=%d: %d internal nodes, want 2^depth-1 = %d", n, len(tree.nodes), internal)
		}
		if tree.Len() != n {
			t.Errorf("n=%d: Len() = %d, want %d", n, tree.Len(), n)
		}
		groups := 1 << tree.depth
		if tree.splitGroup > groups {
			t.Errorf("n=%d: splitGroup %d exceeds group count %d", n, tree.splitGroup, groups)
		}
		total := 0
		for g := 0; g < groups; g++ {
			start, end := tree.leafRange(g)
			if end < start {
				t.Fatalf("n=%d: group %d has negative width", n, g)
			}
			width := end - start
			if width != tree.leafWidth && width != tree.leafWidth-1 {
				t.Errorf("n=%d: group %d width %d, want %d or %d", n, g, width, tree.leafWidth, tree.leafWidth-1)
			}
			total += width
		}
		if total != len(tree.leaves) {
			t.Errorf("n=%d: groups cover %d leaf items, want %d", n, total, len(tree.leaves))
		}
	}
}

// collectSubtree gathers every item reachable from a storage position.
func collectSubtree(t *Tree[point], index int, out *[]point) {
	if index < len(t.nodes) {
		*out = append(*out, t.nodes[index].vantagePoint)
		collectSubtree(t, 2*index+1, out)
		collectSubtree(t, 2*index+2, out)
		return
	}
	start, end := t.leafRange(index - len(t.nodes))
	*out = append(*out, t.leaves[start:end]...)
}

func TestRebuild_PartitionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	pts := randomPoints(rng, 120)
	tree := Build(pts, euclidean, 3)

	for i := range tree.nodes {
		vp := tree.nodes[i].vantagePoint
		radius := tree.nodes[i].radius

		var near []point
		collectSubtree(tree, 2*i+1, &near)
		for _, item := range near {
			if d := euclidean(vp, item); d > radius {
				t.Fatalf("node %d: near subtree item at distance %v beyond radius %v", i, d, radius)
			}
		}
		var far []point
		collectSubtree(tree, 2*i+2, &far)
		for _, item := range far {
			if d := euclidean(vp, item); d < radius {
				t.Fatalf("node %d: far subtree item at distance %v inside radius %v", i, d, radius)
			}
		}
	}
}

func TestMutation_DirtyCoalescesRebuilds(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	calls := 0
	counted := func(a, b point) float32 {
		calls++
		return euclidean(a, b)
	}

	tree := Build(randomPoints(rng, 60), counted, 5)
	calls = 0

	tree.Insert(point{1, 2})
	tree.Extend(randomPoints(rng, 10))
	if calls != 0 {
		t.Fatalf("mutation evaluated %d distances, want 0", calls)
	}
	if !tree.dirty {
		t.Fatal("tree not dirty after Insert/Extend")
	}

	needle := point{50, 50}
	first, ok := tree.Nearest(needle)
	if !ok {
		t.Fatal("Nearest on populated tree returned no result")
	}
	if tree.dirty {
		t.Fatal("tree still dirty after query")
	}
	firstCalls := calls

	calls = 0
	second, ok := tree.Nearest(needle)
	if !ok || second != first {
		t.Fatalf("repeated Nearest = %v, %v; want %v, true", second, ok, first)
	}
	if calls >= firstCalls {
		t.Fatalf("second query evaluated %d distances, want fewer than the %d that included the rebuild", calls, firstCalls)
	}
}

func TestMutation_EmptyExtendKeepsResults(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	tree := Build(randomPoints(rng, 30), euclidean, 3)
	needle := point{12, 34}

	before := tree.KNearest(needle, 5)
	tree.Extend(nil)
	after := tree.KNearest(needle, 5)

	if len(before) != len(after) {
		t.Fatalf("result length changed from %d to %d after empty Extend", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("result %d changed from %v to %v after empty Extend", i, before[i], after[i])
		}
	}
}

func TestNew_LeafCapacityFallback(t *testing.T) {
	tree := New(euclidean, 0)
	if tree.leafCapacity != DefaultLeafCapacity {
		t.Fatalf("leafCapacity = %d, want fallback %d", tree.leafCapacity, DefaultLeafCapacity)
	}
}
