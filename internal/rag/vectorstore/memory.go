package vectorstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var _ vectorstores.VectorStore = (*Memory)(nil)

// Memory keeps every vector in process and scans them all on search
type Memory struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	entries  []entry
}

func NewMemory(embedder embeddings.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

func (m *Memory) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := applyOptions(options)
	kept, vectors, err := embedDocuments(ctx, docs, opts, m.embedder)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(kept))
	added := make([]entry, len(kept))
	for i, doc := range kept {
		ids[i] = uuid.New().String()
		doc.Metadata = copyMetadata(doc.Metadata)
		added[i] = entry{id: ids[i], doc: doc, vec: vectors[i]}
	}

	m.mu.Lock()
	m.entries = append(m.entries, added...)
	m.mu.Unlock()
	return ids, nil
}

func (m *Memory) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)
	vec, err := embedQuery(ctx, query, opts, m.embedder)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return rank(vec, m.entries, numDocuments, opts), nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
