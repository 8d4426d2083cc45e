// Package bruteforce provides a vector index that answers kNN queries
// by scanning and scoring every stored vector. It is the exactness
// baseline the tree-backed index is verified against, and it owns the
// compact binary format both indexes persist with.
package bruteforce
