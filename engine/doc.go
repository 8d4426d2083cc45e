// Package engine provides helpers for working with the
// modernc.org/sqlite driver in this module: opening connections and
// registering distance SQL scalar functions over embedding BLOBs. It
// keeps a thin surface so other packages can share one driver instance.
package engine
