// Package store provides a SQLite-backed durable store for embedding
// vectors, paired with a VP-tree index for kNN search. Writes go to the
// database and mark the in-memory index dirty; the next search reloads
// and rebuilds it, mirroring the buffered-insert discipline of the tree
// itself. The tree layers never touch storage directly.
package store
