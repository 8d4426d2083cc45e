// Package vp implements the index.Index interface on top of the
// vantage-point tree in the module root. Distance kernels come from
// github.com/viant/vec. The cosine metric is searched as chord distance
// over unit vectors, since raw cosine distance violates the triangle
// inequality the tree prunes by; scores are converted back to cosine
// similarity. Serialization delegates to the brute-force binary format
// so the two index flavors stay interchangeable on disk.
package vp
