package bruteforce

import (
	"encoding/binary"
	"errors"
	"math"
)

// Encode serializes ids and vectors as dim(uint32), n(uint32), then per
// entry idLen(uint32), id bytes, vec(float32[dim]), all little-endian.
func Encode(ids []string, vecs [][]float32) ([]byte, error) {
	if len(ids) != len(vecs) {
		return nil, errors.New("bruteforce: ids and vectors length mismatch")
	}
	if len(ids) == 0 {
		buf := make([]byte, 8)
		return buf, nil
	}
	dim := len(vecs[0])
	size := 8
	for _, id := range ids {
		size += 4 + len(id) + 4*dim
	}
	out := make([]byte, 0, size)
	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}
	putU32(uint32(dim))
	putU32(uint32(len(ids)))
	for idx, id := range ids {
		if len(vecs[idx]) != dim {
			return nil, errors.New("bruteforce: inconsistent vector dims")
		}
		putU32(uint32(len(id)))
		out = append(out, id...)
		for _, v := range vecs[idx] {
			putU32(math.Float32bits(v))
		}
	}
	return out, nil
}

// Decode reverses Encode.
func Decode(data []byte) ([]string, [][]float32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}
	dim := int(getU32())
	n := int(getU32())
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return nil, nil, errors.New("bruteforce: truncated")
		}
		idLen := int(getU32())
		if off+idLen > len(data) {
			return nil, nil, errors.New("bruteforce: truncated id")
		}
		ids[idx] = string(data[off : off+idLen])
		off += idLen
		if off+4*dim > len(data) {
			return nil, nil, errors.New("bruteforce: truncated vector")
		}
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[idx] = vec
	}
	return ids, vecs, nil
}
