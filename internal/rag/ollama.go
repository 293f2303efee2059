package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// NewOllamaModels returns the generation model and the embedder, both served by the Ollama host
func NewOllamaModels(host, model, embeddingModel string) (*ollama.LLM, embeddings.Embedder, error) {
	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(host))
	if err != nil {
		return nil, nil, fmt.Errorf("ollama model %s: %w", model, err)
	}

	embedLLM := llm
	if embeddingModel != "" && embeddingModel != model {
		embedLLM, err = ollama.New(ollama.WithModel(embeddingModel), ollama.WithServerURL(host))
		if err != nil {
			return nil, nil, fmt.Errorf("ollama embedding model %s: %w", embeddingModel, err)
		}
	}

	embedder, err := embeddings.NewEmbedder(embedLLM)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	return llm, embedder, nil
}
