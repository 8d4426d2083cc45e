// Package index defines a minimal abstraction for vector indexes that
// can be built from (id, embedding) pairs, queried for kNN, and
// serialized for persistence. Implementations in this module include a
// VP-tree index and a brute-force baseline.
package index
