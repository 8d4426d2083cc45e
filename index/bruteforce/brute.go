package bruteforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/vptree/index"
)

// Index is a brute-force vector index. Scoring follows the configured
// metric: cosine similarity, or negated Euclidean distance.
type Index struct {
	metric index.Metric
	ids    []string
	vecs   [][]float32
	dim    int
	mags   []float64
}

// New returns a brute-force index for the given metric, falling back to
// cosine when the metric is unknown.
func New(metric index.Metric) *Index {
	if !metric.Valid() {
		metric = index.MetricCosine
	}
	return &Index{metric: metric}
}

// Build loads ids and vectors and precomputes magnitudes.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if i.metric == "" {
		i.metric = index.MetricCosine
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
	}
	mags := make([]float64, len(vectors))
	for j := range vectors {
		mags[j] = magnitude(vectors[j])
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.mags = mags
	return nil
}

// Query returns the top k ids by score, descending.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := magnitude(query)
	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, 0, len(i.vecs))
	for j := range i.vecs {
		s, ok := i.score(query, qm, j)
		if !ok {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, score: s})
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].score > scoreds[b].score })
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outScores := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outScores[n] = scoreds[n].score
	}
	return outIDs, outScores, nil
}

func (i *Index) score(query []float32, qm float64, j int) (float64, bool) {
	switch i.metric {
	case index.MetricEuclidean:
		var sum float64
		vec := i.vecs[j]
		for d := range query {
			diff := float64(query[d]) - float64(vec[d])
			sum += diff * diff
		}
		return -math.Sqrt(sum), true
	default:
		if qm == 0 || i.mags[j] == 0 {
			return 0, false
		}
		s := dot(query, i.vecs[j]) / (qm * i.mags[j])
		if math.IsNaN(s) {
			return 0, false
		}
		return s, true
	}
}

// MarshalBinary stores the index in the shared binary format.
func (i *Index) MarshalBinary() ([]byte, error) {
	return Encode(i.ids, i.vecs)
}

// UnmarshalBinary restores the index from the shared binary format.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }

var _ index.Index = (*Index)(nil)
