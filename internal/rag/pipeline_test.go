package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"usage-mail-llm/internal/rag/loader"
	"usage-mail-llm/internal/rag/vectorstore"

	"github.com/tmc/langchaingo/llms"
)

var vocabulary = []string{"ollama", "wolf", "pig", "excel"}

type MockEmbedder struct{}

func (MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embed(text)
	}
	return out, nil
}

func (MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
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

type MockModel struct {
	Reply       string
	Err         error
	Prompts     []string
	Temperature float64
}

func (m *MockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	m.Temperature = opts.Temperature

	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.Prompts = append(m.Prompts, text.Text)
			}
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.Reply}}}, nil
}

func (m *MockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

const story = `The first pig built a house of straw. The wolf blew it down.

The second pig built a house of sticks. The wolf blew that down too.

Ollama serves the mistral model on port 11434 for this demo.

The third pig kept a spreadsheet in Excel of every brick he bought.`

func newTestPipeline(t *testing.T, model *MockModel, prompt string) (*Pipeline, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.txt")
	if err := os.WriteFile(path, []byte(story), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	p, err := NewPipeline(loader.New(nil), vectorstore.NewMemory(MockEmbedder{}), model, Options{
		ChunkSize:    80,
		ChunkOverlap: 10,
		TopK:         1,
		Temperature:  0.7,
		Prompt:       prompt,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return p, path
}

func TestPipeline_IndexAndAsk(t *testing.T) {
	model := &MockModel{Reply: "  Port 11434.\n"}
	p, path := newTestPipeline(t, model, PromptStrict)
	ctx := context.Background()

	n, err := p.Index(ctx, path)
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if n < 2 {
		t.Fatalf("Expected the story to be split into several chunks, got %d", n)
	}

	answer, err := p.Ask(ctx, "Which port does Ollama use?")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if answer.Text != "Port 11434." {
		t.Errorf("Unexpected answer %q", answer.Text)
	}
	if len(answer.Sources) != 1 || !strings.Contains(answer.Sources[0].PageContent, "11434") {
		t.Fatalf("Expected the Ollama chunk as source, got %+v", answer.Sources)
	}
	if answer.Sources[0].Metadata[loader.MetadataSource] != path {
		t.Errorf("Source metadata lost in split: %v", answer.Sources[0].Metadata)
	}

	if len(model.Prompts) != 1 {
		t.Fatalf("Expected one prompt, got %d", len(model.Prompts))
	}
	prompt := model.Prompts[0]
	for _, want := range []string{"Answer the question using only the context below.", "port 11434", "Which port does Ollama use?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "wolf") {
		t.Errorf("Only the top chunk should be in the context:\n%s", prompt)
	}
	if model.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %f", model.Temperature)
	}
}

func TestPipeline_AugmentedPrompt(t *testing.T) {
	model := &MockModel{Reply: "The wolf."}
	p, path := newTestPipeline(t, model, "")

	if _, err := p.Index(context.Background(), path); err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if _, err := p.Ask(context.Background(), "What is the wolf doing?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if !strings.Contains(model.Prompts[0], "clearly separate them from the context") {
		t.Errorf("Expected augmented prompt, got:\n%s", model.Prompts[0])
	}
}

func TestPipeline_Errors(t *testing.T) {
	model := &MockModel{Err: errors.New("model \"mistral\" not found")}
	p, path := newTestPipeline(t, model, PromptStrict)

	if _, err := p.Index(context.Background(), path+".zip"); !errors.Is(err, loader.ErrUnsupportedSource) {
		t.Errorf("Expected ErrUnsupportedSource, got %v", err)
	}
	if _, err := p.Ask(context.Background(), "anything"); err == nil {
		t.Error("Expected generation error")
	}
}

func TestNewPrompt(t *testing.T) {
	if _, err := NewPrompt("creative"); err == nil {
		t.Error("Expected error for unknown prompt")
	}

	tmpl, err := NewPrompt(PromptStrict)
	if err != nil {
		t.Fatalf("NewPrompt() error: %v", err)
	}
	got, err := tmpl.Format(map[string]any{"context": "a\n\nb", "question": "q?"})
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(got, "Context:\na\n\nb\n") || !strings.Contains(got, "Question:\nq?") {
		t.Errorf("Unexpected prompt:\n%s", got)
	}
}
