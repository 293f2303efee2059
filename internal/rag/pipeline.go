// Package rag answers questions from local documents: load, split, embed, store, retrieve, prompt, generate.
package rag

import (
	"context"
	"fmt"
	"strings"

	"usage-mail-llm/internal/logging"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/tmc/langchaingo/vectorstores"
)

// DocumentLoader reads sources into documents
type DocumentLoader interface {
	LoadAll(ctx context.Context, sources ...string) ([]schema.Document, error)
}

type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	ScoreThreshold float32
	Temperature    float64
	Prompt         string
}

// Answer is the generated reply and the chunks it was grounded on
type Answer struct {
	Text    string
	Sources []schema.Document
}

type Pipeline struct {
	loader   DocumentLoader
	splitter textsplitter.TextSplitter
	store    vectorstores.VectorStore
	model    llms.Model
	prompt   prompts.PromptTemplate
	opts     Options
}

func NewPipeline(loader DocumentLoader, store vectorstores.VectorStore, model llms.Model, opts Options) (*Pipeline, error) {
	prompt, err := NewPrompt(opts.Prompt)
	if err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = 4
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(opts.ChunkSize),
		textsplitter.WithChunkOverlap(opts.ChunkOverlap),
	)

	return &Pipeline{
		loader:   loader,
		splitter: splitter,
		store:    store,
		model:    model,
		prompt:   prompt,
		opts:     opts,
	}, nil
}

// Index loads, splits and stores sources, returning the number of chunks added
func (p *Pipeline) Index(ctx context.Context, sources ...string) (int, error) {
	docs, err := p.loader.LoadAll(ctx, sources...)
	if err != nil {
		return 0, err
	}

	chunks, err := textsplitter.SplitDocuments(p.splitter, docs)
	if err != nil {
		return 0, fmt.Errorf("split documents: %w", err)
	}
	if len(chunks) == 0 {
		logging.Log.Warnf("No text found in %d sources", len(sources))
		return 0, nil
	}

	ids, err := p.store.AddDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	logging.Log.WithField("sources", len(sources)).Infof("Indexed %d chunks from %d documents", len(ids), len(docs))
	return len(ids), nil
}

// Ask retrieves the closest chunks for question and has the model answer from them
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	var retrieverOpts []vectorstores.Option
	if p.opts.ScoreThreshold > 0 {
		retrieverOpts = append(retrieverOpts, vectorstores.WithScoreThreshold(p.opts.ScoreThreshold))
	}
	retriever := vectorstores.ToRetriever(p.store, p.opts.TopK, retrieverOpts...)

	docs, err := retriever.GetRelevantDocuments(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(docs) == 0 {
		logging.Log.Warn("No relevant context retrieved")
	}

	prompt, err := p.prompt.Format(map[string]any{
		"context":  formatDocs(docs),
		"question": question,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("format prompt: %w", err)
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt, llms.WithTemperature(p.opts.Temperature))
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}

	return Answer{Text: strings.TrimSpace(text), Sources: docs}, nil
}

func formatDocs(docs []schema.Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n")
}
