package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/vptree/index"
	"github.com/viant/vptree/index/vp"
)

const vectorsSchema = `
CREATE TABLE IF NOT EXISTS vectors (
    id TEXT PRIMARY KEY,
    embedding BLOB NOT NULL
);
`

// EnsureSchema creates the vectors table in the provided database if it
// does not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(vectorsSchema)
	return err
}

// Vector is a stored embedding with its logical identifier.
type Vector struct {
	ID        string
	Embedding []float32
}

// Match is a search result: a stored id and its score, where a higher
// score means a closer vector.
type Match struct {
	ID    string
	Score float64
}

// SQLiteStore persists vectors in SQLite and answers kNN searches
// through a VP-tree index rebuilt lazily after writes. It is not safe
// for concurrent use; callers must serialize access.
type SQLiteStore struct {
	db     *sql.DB
	metric index.Metric
	idx    *vp.Index
	dirty  bool
}

// NewSQLiteStore creates a SQLite-backed store scoring with the given
// metric. It ensures the vectors schema exists in the database.
func NewSQLiteStore(db *sql.DB, metric index.Metric) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	if !metric.Valid() {
		metric = index.MetricCosine
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, metric: metric, dirty: true}, nil
}

// Add upserts vectors and marks the index dirty. Every Vector must
// carry a non-empty ID and a non-empty embedding.
func (s *SQLiteStore) Add(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors(id, embedding) VALUES(?, ?)
ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range vectors {
		if v.ID == "" {
			return fmt.Errorf("store: Vector.ID must be set")
		}
		blob, err := EncodeEmbedding(v.Embedding)
		if err != nil {
			return err
		}
		if blob == nil {
			return fmt.Errorf("store: Vector %q has an empty embedding", v.ID)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, blob); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// Remove deletes a vector by id. The index sees the removal as part of
// the next rebuild.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("store: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// Search returns up to k matches for the query embedding, best first,
// rebuilding the index from the database when writes happened since the
// last search.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.dirty {
		if err := s.rebuild(ctx); err != nil {
			return nil, err
		}
	}
	ids, scores, err := s.idx.Query(query, k)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(ids))
	for i := range ids {
		out[i] = Match{ID: ids[i], Score: scores[i]}
	}
	return out, nil
}

func (s *SQLiteStore) rebuild(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM vectors ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	var vecs [][]float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	idx := vp.New(s.metric, 0)
	if err := idx.Build(ids, vecs); err != nil {
		return err
	}
	s.idx = idx
	s.dirty = false
	return nil
}
