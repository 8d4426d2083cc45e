package index

// Index defines a generic vector index with basic lifecycle methods.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length; vectors must share
	// one dimensionality.
	Build(ids []string, vectors [][]float32) error

	// Query runs a kNN search with the provided query vector and
	// returns up to k matches as parallel slices of ids and scores,
	// where a higher score means more similar.
	Query(query []float32, k int) (ids []string, scores []float64, err error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// Metric names a supported distance function for vector indexes.
type Metric string

const (
	// MetricCosine scores by cosine similarity (1 - cosine distance).
	MetricCosine Metric = "cosine"
	// MetricEuclidean scores by negated Euclidean distance, so closer
	// vectors still rank higher.
	MetricEuclidean Metric = "euclidean"
)

// Valid reports whether the metric is one this module implements.
func (m Metric) Valid() bool {
	return m == MetricCosine || m == MetricEuclidean
}
