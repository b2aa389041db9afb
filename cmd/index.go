package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baterms/chatbot/internal/chunker"
	"github.com/baterms/chatbot/internal/knowledge"
	"github.com/baterms/chatbot/internal/progress"
	"github.com/baterms/chatbot/internal/vectorindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge base index and persist it to disk",
	Long: `Loads the built-in corpus plus any documents in the knowledge directory,
splits them into overlapping chunks, embeds every chunk, and writes the
index artifacts so serve and query start instantly.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docs, err := knowledge.NewLoader(cfg.KnowledgeDir).LoadCorpus()
	if err != nil {
		return fmt.Errorf("loading knowledge corpus: %w", err)
	}
	chunks := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap).SplitDocuments(docs)
	fmt.Printf("Loaded %d documents (%d chunks)\n", len(docs), len(chunks))

	index := vectorindex.New(createEmbedderFromConfig(cfg))
	reporter := progress.NewReporter()
	reporter.Start(len(chunks))
	index.OnProgress = func(done, total int) {
		reporter.Update(done, fmt.Sprintf("Embedding chunk %d/%d", done, total))
	}

	if err := index.Build(ctx, chunks); err != nil {
		reporter.Finish()
		return fmt.Errorf("building index: %w", err)
	}
	reporter.Finish()

	if err := index.Persist(cfg.IndexPath, cfg.ManifestPath); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	fmt.Printf("Indexed %d chunks (dim=%d) to %s\n", index.Count(), index.Dimensions(), cfg.IndexPath)
	return nil
}
