package vectorstore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var vocabulary = []string{"ollama", "imap", "excel", "pdf"}

// MockEmbedder counts vocabulary words, so texts sharing words end up close
type MockEmbedder struct {
	Err   error
	Calls int
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embed(text)
	}
	return out, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return embed(text), nil
}

func embed(text string) []float32 {
	vec := make([]float32, len(vocabulary))
	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec
}

var corpus = []schema.Document{
	{PageContent: "Ollama runs models locally. Ollama listens on 11434.", Metadata: map[string]any{"source": "ollama.md"}},
	{PageContent: "IMAP polling fetches new mail.", Metadata: map[string]any{"source": "mail.md"}},
	{PageContent: "Rows are appended to an Excel sheet, later exported to PDF.", Metadata: map[string]any{"source": "sheet.md"}},
}

var testStores = map[string]func(t *testing.T, e *MockEmbedder) vectorstores.VectorStore{
	"memory": func(t *testing.T, e *MockEmbedder) vectorstores.VectorStore { return NewMemory(e) },
	"sqlite": func(t *testing.T, e *MockEmbedder) vectorstores.VectorStore {
		t.Helper()
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "rag.db"), e)
		if err != nil {
			t.Fatalf("OpenSQLite() error: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	},
}

func TestStores_SimilaritySearch(t *testing.T) {
	for name, newStore := range testStores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, &MockEmbedder{})
			ctx := context.Background()

			ids, err := s.AddDocuments(ctx, corpus)
			if err != nil {
				t.Fatalf("AddDocuments() error: %v", err)
			}
			if len(ids) != len(corpus) || ids[0] == ids[1] {
				t.Fatalf("Unexpected ids: %v", ids)
			}

			docs, err := s.SimilaritySearch(ctx, "which port does ollama use?", 2)
			if err != nil {
				t.Fatalf("SimilaritySearch() error: %v", err)
			}
			if len(docs) != 2 {
				t.Fatalf("Expected 2 documents, got %d", len(docs))
			}
			if docs[0].Metadata["source"] != "ollama.md" {
				t.Errorf("Expected ollama.md first, got %v", docs[0].Metadata)
			}
			if math.Abs(float64(docs[0].Score)-1) > 1e-6 {
				t.Errorf("Expected score 1 for identical direction, got %f", docs[0].Score)
			}
			if docs[1].Score > docs[0].Score {
				t.Errorf("Results not sorted by score: %f > %f", docs[1].Score, docs[0].Score)
			}
		})
	}
}

func TestStores_ScoreThresholdAndFilters(t *testing.T) {
	for name, newStore := range testStores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, &MockEmbedder{})
			ctx := context.Background()
			if _, err := s.AddDocuments(ctx, corpus); err != nil {
				t.Fatalf("AddDocuments() error: %v", err)
			}

			docs, err := s.SimilaritySearch(ctx, "excel", 5, vectorstores.WithScoreThreshold(0.5))
			if err != nil {
				t.Fatalf("SimilaritySearch() error: %v", err)
			}
			if len(docs) != 1 || docs[0].Metadata["source"] != "sheet.md" {
				t.Errorf("Expected only sheet.md above threshold, got %+v", docs)
			}

			docs, err = s.SimilaritySearch(ctx, "ollama", 5, vectorstores.WithFilters(map[string]any{"source": "mail.md"}))
			if err != nil {
				t.Fatalf("SimilaritySearch() error: %v", err)
			}
			if len(docs) != 1 || docs[0].Metadata["source"] != "mail.md" {
				t.Errorf("Expected filter to keep mail.md only, got %+v", docs)
			}
		})
	}
}

func TestStores_Deduplicater(t *testing.T) {
	for name, newStore := range testStores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, &MockEmbedder{})
			skipMail := vectorstores.WithDeduplicater(func(ctx context.Context, doc schema.Document) bool {
				return doc.Metadata["source"] == "mail.md"
			})

			ids, err := s.AddDocuments(context.Background(), corpus, skipMail)
			if err != nil {
				t.Fatalf("AddDocuments() error: %v", err)
			}
			if len(ids) != 2 {
				t.Errorf("Expected 2 documents stored, got %d", len(ids))
			}
		})
	}
}

func TestStores_Errors(t *testing.T) {
	for name, newStore := range testStores {
		t.Run(name, func(t *testing.T) {
			embedder := &MockEmbedder{Err: errors.New("connection refused")}
			s := newStore(t, embedder)

			if _, err := s.AddDocuments(context.Background(), corpus); err == nil {
				t.Error("Expected embedding error")
			}
			if _, err := s.SimilaritySearch(context.Background(), "ollama", 1); err == nil {
				t.Error("Expected query embedding error")
			}
		})
	}
}

func TestMemory_NoEmbedder(t *testing.T) {
	_, err := NewMemory(nil).AddDocuments(context.Background(), corpus)
	if !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("Expected ErrNoEmbedder, got %v", err)
	}

	m := NewMemory(nil)
	if _, err := m.AddDocuments(context.Background(), corpus, vectorstores.WithEmbedder(&MockEmbedder{})); err != nil {
		t.Fatalf("AddDocuments() with option embedder error: %v", err)
	}
	if m.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", m.Len())
	}
}

func TestSQLite_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, &MockEmbedder{})
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	if _, err := s.AddDocuments(ctx, corpus); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenSQLite(path, &MockEmbedder{})
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
	docs, err := reopened.SimilaritySearch(ctx, "imap", 1)
	if err != nil {
		t.Fatalf("SimilaritySearch() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata["source"] != "mail.md" || !strings.Contains(docs[0].PageContent, "IMAP polling") {
		t.Errorf("Unexpected documents after reopen: %+v", docs)
	}
}

func TestFloat32Blob(t *testing.T) {
	in := []float32{0, 1.5, -2.25, float32(math.Pi)}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("Length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("Value %d = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "same direction", a: []float32{1, 2}, b: []float32{2, 4}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
	}

	for _, tt := range tests {
		if got := cosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: cosineSimilarity() = %f, want %f", tt.name, got, tt.want)
		}
	}
}
