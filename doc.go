// Package vptree implements a vantage-point tree: an exact
// nearest-neighbor index over an arbitrary metric space. Items are
// compared only through a caller-supplied distance function, which must
// be a true metric (non-negative, symmetric, triangle inequality), so
// the tree works for any comparable data, not just coordinate vectors.
//
// The tree is stored flat. Internal nodes form an implicit complete
// binary tree in a single slice, with the children of node i at 2i+1
// and 2i+2. All items at final depth live in a second slice, partitioned
// into contiguous leaf groups whose bounds are derived arithmetically
// from three layout scalars instead of per-group bookkeeping. Queries
// run a shared branch-and-bound traversal with an explicit stack of
// deferred branches; the triangle inequality prunes any branch that
// cannot beat the current bound.
//
// Insert and Extend only append to a buffer and mark the tree dirty.
// The next query (or an explicit Rebuild) folds the buffer into the
// indexed layers with a full O(n log n) rebuild, amortizing write bursts
// at the cost of a latency spike on the first query after them.
//
// A Tree is not safe for concurrent use: a query may trigger a rebuild,
// so callers must serialize all access to one instance.
package vptree
