// Package vectorstore provides flat cosine-similarity stores behind the langchaingo VectorStore interface.
package vectorstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// ErrNoEmbedder is returned when neither the store nor the call options provide an embedder
var ErrNoEmbedder = errors.New("no embedder configured")

type entry struct {
	id  string
	doc schema.Document
	vec []float32
}

func applyOptions(options []vectorstores.Option) vectorstores.Options {
	var opts vectorstores.Options
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

func pickEmbedder(opts vectorstores.Options, fallback embeddings.Embedder) (embeddings.Embedder, error) {
	if opts.Embedder != nil {
		return opts.Embedder, nil
	}
	if fallback == nil {
		return nil, ErrNoEmbedder
	}
	return fallback, nil
}

// embedDocuments drops the documents rejected by the deduplicater and embeds the rest
func embedDocuments(ctx context.Context, docs []schema.Document, opts vectorstores.Options, fallback embeddings.Embedder) ([]schema.Document, [][]float32, error) {
	embedder, err := pickEmbedder(opts, fallback)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, doc) {
			continue
		}
		kept = append(kept, doc)
	}
	if len(kept) == 0 {
		return nil, nil, nil
	}

	texts := make([]string, len(kept))
	for i, doc := range kept {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(kept) {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(kept))
	}
	return kept, vectors, nil
}

func embedQuery(ctx context.Context, query string, opts vectorstores.Options, fallback embeddings.Embedder) ([]float32, error) {
	embedder, err := pickEmbedder(opts, fallback)
	if err != nil {
		return nil, err
	}
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// rank scores entries against query and returns the best n, highest score first
func rank(query []float32, entries []entry, n int, opts vectorstores.Options) []schema.Document {
	type scored struct {
		doc   schema.Document
		score float32
	}

	var hits []scored
	for _, e := range entries {
		if !matchFilters(e.doc.Metadata, opts.Filters) {
			continue
		}
		score := float32(cosineSimilarity(query, e.vec))
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		hits = append(hits, scored{doc: e.doc, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}

	docs := make([]schema.Document, len(hits))
	for i, h := range hits {
		doc := h.doc
		doc.Score = h.score
		docs[i] = doc
	}
	return docs
}

// matchFilters accepts a map of metadata key to required value
func matchFilters(metadata map[string]any, filters any) bool {
	want, ok := filters.(map[string]any)
	if !ok || len(want) == 0 {
		return true
	}
	for k, v := range want {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func float32SliceToBytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func bytesToFloat32Slice(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
