package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	_ "modernc.org/sqlite"
)

var _ vectorstores.VectorStore = (*SQLite)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	vector     BLOB NOT NULL,
	created_at TEXT NOT NULL
);`

// SQLite persists documents and their vectors in a single table; search reads every row
type SQLite struct {
	db       *sql.DB
	embedder embeddings.Embedder
}

func OpenSQLite(path string, embedder embeddings.Embedder) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open vector store %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init vector store %s: %w", path, err)
	}
	return &SQLite{db: db, embedder: embedder}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := applyOptions(options)
	kept, vectors, err := embedDocuments(ctx, docs, opts, s.embedder)
	if err != nil {
		return nil, err
	}
	if len(kept) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, content, metadata, vector, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, len(kept))
	for i, doc := range kept {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		ids[i] = uuid.New().String()
		if _, err := stmt.ExecContext(ctx, ids[i], doc.PageContent, string(meta), float32SliceToBytes(vectors[i]), now); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLite) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)
	vec, err := embedQuery(ctx, query, opts, s.embedder)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, vector FROM documents`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []entry
	for rows.Next() {
		var (
			e    entry
			meta string
			blob []byte
		)
		if err := rows.Scan(&e.id, &e.doc.PageContent, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &e.doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", e.id, err)
		}
		e.vec = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(vec, entries, numDocuments, opts), nil
}

// Count returns the number of stored documents
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}
