package vp

import (
	"fmt"
	"math"

	"github.com/viant/vec/search"
	"github.com/viant/vptree"
	"github.com/viant/vptree/index"
	"github.com/viant/vptree/index/bruteforce"
)

// Point is the item the tree partitions: an embedding with its id. For
// the cosine metric it also carries a unit-length copy of the vector;
// the tree then measures chord distance between unit vectors, which is
// a true metric and orders candidates exactly like cosine similarity.
type Point struct {
	ID     string
	Vector []float32
	unit   []float32
}

// Index is a VP-tree backed vector index.
type Index struct {
	metric       index.Metric
	leafCapacity int
	dim          int
	size         int
	tree         *vptree.Tree[Point]
	ids          []string
	vecs         [][]float32
}

// New returns an index for the given metric, falling back to cosine
// when the metric is unknown. leafCapacity tunes the underlying tree;
// pass 0 for the default.
func New(metric index.Metric, leafCapacity int) *Index {
	if !metric.Valid() {
		metric = index.MetricCosine
	}
	return &Index{metric: metric, leafCapacity: leafCapacity}
}

func (i *Index) distance() vptree.Func[Point] {
	if i.metric == index.MetricEuclidean {
		return euclideanDistance
	}
	return unitDistance
}

// unitDistance is the chord distance between unit vectors. For vectors
// at angle theta it equals sqrt(2*(1-cos theta)), so it is monotone in
// cosine distance while still satisfying the triangle inequality the
// tree's pruning depends on.
func unitDistance(a, b Point) float32 {
	return search.Float32s(a.unit).EuclideanDistance(b.unit)
}

func euclideanDistance(a, b Point) float32 {
	return search.Float32s(a.Vector).EuclideanDistance(b.Vector)
}

// normalize returns v scaled to unit length. A zero vector stays zero;
// its direction is undefined and it scores as orthogonal to everything.
func normalize(v []float32) []float32 {
	unit := make([]float32, len(v))
	mag := search.Float32s(v).Magnitude()
	if mag == 0 {
		return unit
	}
	for d := range v {
		unit[d] = v[d] / mag
	}
	return unit
}

func (i *Index) point(id string, vector []float32) Point {
	p := Point{ID: id, Vector: vector}
	if i.metric == index.MetricCosine {
		p.unit = normalize(vector)
	}
	return p
}

// Build constructs the tree from ids and vectors.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vp: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if i.metric == "" {
		i.metric = index.MetricCosine
	}
	if len(ids) == 0 {
		i.dim, i.size = 0, 0
		i.ids, i.vecs = nil, nil
		i.tree = vptree.New(i.distance(), i.leafCapacity)
		return nil
	}
	dim := len(vectors[0])
	points := make([]Point, len(ids))
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("vp: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
		points[j] = i.point(ids[j], vectors[j])
	}
	i.dim = dim
	i.size = len(ids)
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.tree = vptree.Build(points, i.distance(), i.leafCapacity)
	return nil
}

// Query returns up to k ids ordered by descending score. Scores are
// cosine similarity for the cosine metric and negated distance for the
// Euclidean metric, so a higher score always means a closer vector.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.tree == nil || i.size == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("vp: query dim %d != index dim %d", len(query), i.dim)
	}
	neighbors := i.tree.KNearest(i.point("", query), k)
	ids := make([]string, len(neighbors))
	scores := make([]float64, len(neighbors))
	for n, nb := range neighbors {
		ids[n] = nb.Item.ID
		scores[n] = i.scoreOf(nb.Distance)
	}
	return ids, scores, nil
}

// Within returns every id whose distance to query is at most threshold,
// closest first, with matching scores. The threshold is in the metric's
// native units: cosine distance (1 - similarity) for the cosine metric,
// Euclidean distance otherwise.
func (i *Index) Within(query []float32, threshold float32) ([]string, []float64, error) {
	if i.tree == nil || i.size == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("vp: query dim %d != index dim %d", len(query), i.dim)
	}
	if i.metric == index.MetricCosine {
		if threshold < 0 {
			return nil, nil, nil
		}
		// Chord and cosine distance relate by chord^2 = 2*cosine.
		threshold = float32(math.Sqrt(2 * float64(threshold)))
	}
	neighbors := i.tree.WithinRadius(i.point("", query), threshold)
	ids := make([]string, len(neighbors))
	scores := make([]float64, len(neighbors))
	for n, nb := range neighbors {
		ids[n] = nb.Item.ID
		scores[n] = i.scoreOf(nb.Distance)
	}
	return ids, scores, nil
}

func (i *Index) scoreOf(distance float32) float64 {
	if i.metric == index.MetricEuclidean {
		return -float64(distance)
	}
	// Invert the chord relation: similarity = 1 - chord^2 / 2.
	return 1 - float64(distance)*float64(distance)/2
}

// MarshalBinary uses the brute-force format for persistence.
func (i *Index) MarshalBinary() ([]byte, error) {
	return bruteforce.Encode(i.ids, i.vecs)
}

// UnmarshalBinary loads the brute-force format and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

var _ index.Index = (*Index)(nil)
