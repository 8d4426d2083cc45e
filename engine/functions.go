package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"

	sqlite "modernc.org/sqlite"
)

// RegisterDistanceFunctions registers vpt_l2 and vpt_cosine with the
// driver so they are available on connections opened after this call.
// Both take two embedding BLOBs (little-endian float32 sequences) and
// return a float64: vpt_l2 the Euclidean distance, vpt_cosine the
// cosine distance (1 - similarity). Registration is idempotent; the
// driver rejects duplicates and those errors are ignored.
func RegisterDistanceFunctions() error {
	_ = sqlite.RegisterDeterministicScalarFunction("vpt_l2", 2, vptL2Impl)
	_ = sqlite.RegisterDeterministicScalarFunction("vpt_cosine", 2, vptCosineImpl)
	return nil
}

func vptL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingArgs("vpt_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func vptCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingArgs("vpt_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return nil, fmt.Errorf("vpt_cosine: zero-magnitude embedding")
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

func embeddingArgs(fn string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", fn, len(args))
	}
	a, err := asEmbedding(fn, args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(fn, args[1])
	if err != nil {
		return nil, nil, err
	}
	if a != nil && b != nil && len(a) != len(b) {
		return nil, nil, fmt.Errorf("%s: dimension mismatch %d vs %d", fn, len(a), len(b))
	}
	return a, b, nil
}

func asEmbedding(fn string, arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v)%4 != 0 {
			return nil, fmt.Errorf("%s: invalid embedding blob length %d", fn, len(v))
		}
		out := make([]float32, len(v)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v[i*4:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T, want BLOB", fn, arg)
	}
}
