package main

import (
	"fmt"

	"usage-mail-llm/internal/config"
	"usage-mail-llm/internal/console"
	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/rag"
	"usage-mail-llm/internal/rag/loader"
	"usage-mail-llm/internal/rag/vectorstore"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
)

func newRAGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rag",
		Short: "Answer questions from documents (txt, md, pdf, html, web pages)",
	}
	cmd.AddCommand(newRAGIndexCmd(), newRAGAskCmd())
	return cmd
}

func newRAGIndexCmd() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "index <source>...",
		Short: "Load, split and embed sources into the persistent SQLite index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateRAG(cfg); err != nil {
				return err
			}
			if storePath == "" {
				storePath = cfg.RAG.StorePath
			}

			model, embedder, err := rag.NewOllamaModels(cfg.LLM.Host, cfg.RAG.Model, cfg.RAG.EmbeddingModel)
			if err != nil {
				return err
			}
			store, err := vectorstore.OpenSQLite(storePath, embedder)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			loader.StartCleanup(cmd.Context())
			pipeline, err := rag.NewPipeline(loader.New(loader.NewRodRenderer()), store, model, pipelineOptions())
			if err != nil {
				return err
			}

			n, err := pipeline.Index(cmd.Context(), args...)
			if err != nil {
				return err
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			console.Std().Note(fmt.Sprintf("Indexed %d chunks into %s (%d total)", n, storePath, total))
			return nil
		},
	}
	cmd.Flags().StringVar(&storePath, "store-path", "", "SQLite index file (default rag.storePath)")
	return cmd
}

func newRAGAskCmd() *cobra.Command {
	var (
		sources     []string
		storePath   string
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Retrieve the closest chunks and let the model answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateRAG(cfg); err != nil {
				return err
			}
			if storePath == "" {
				storePath = cfg.RAG.StorePath
			}

			model, embedder, err := rag.NewOllamaModels(cfg.LLM.Host, cfg.RAG.Model, cfg.RAG.EmbeddingModel)
			if err != nil {
				return err
			}

			// without sources the persistent index is queried as-is
			useSQLite := cfg.RAG.Store == "sqlite" || len(sources) == 0
			store, closeStore, err := openStore(useSQLite, storePath, embedder)
			if err != nil {
				return err
			}
			defer closeStore()

			loader.StartCleanup(cmd.Context())
			pipeline, err := rag.NewPipeline(loader.New(loader.NewRodRenderer()), store, model, pipelineOptions())
			if err != nil {
				return err
			}

			if len(sources) > 0 {
				if _, err := pipeline.Index(cmd.Context(), sources...); err != nil {
					return err
				}
			}

			answer, err := pipeline.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := console.Std()
			out.Section("Answer:", answer.Text)
			if showSources {
				for i, doc := range answer.Sources {
					out.Note(fmt.Sprintf("[%d] %v (score %.3f)", i+1, doc.Metadata[loader.MetadataSource], doc.Score))
				}
			}
			logging.Log.Debugf("Answered from %d chunks", len(answer.Sources))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "document to load before asking (repeatable)")
	cmd.Flags().StringVar(&storePath, "store-path", "", "SQLite index file (default rag.storePath)")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "list the chunks the answer was built from")
	return cmd
}

func openStore(useSQLite bool, path string, embedder embeddings.Embedder) (vectorstores.VectorStore, func(), error) {
	if !useSQLite {
		return vectorstore.NewMemory(embedder), func() {}, nil
	}
	store, err := vectorstore.OpenSQLite(path, embedder)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func pipelineOptions() rag.Options {
	return rag.Options{
		ChunkSize:      cfg.RAG.ChunkSize,
		ChunkOverlap:   cfg.RAG.ChunkOverlap,
		TopK:           cfg.RAG.TopK,
		ScoreThreshold: cfg.RAG.MinScore,
		Temperature:    *cfg.RAG.Temperature,
		Prompt:         cfg.RAG.Prompt,
	}
}
