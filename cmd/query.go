package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/baterms/chatbot/internal/vectorindex"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Search the knowledge base without invoking the LLM",
	Long:  `Embeds the question, searches the persisted vector index, and prints the most similar knowledge base chunks with scores.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of results")
	queryCmd.Flags().Float32("threshold", 0, "minimum similarity score")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat32("threshold")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index := vectorindex.New(createEmbedderFromConfig(cfg))
	loaded, err := index.Load(cfg.IndexPath, cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("loading index from %s: %w", cfg.IndexPath, err)
	}
	if !loaded {
		return fmt.Errorf("no index found at %s\nRun `batebot index` first to build it", cfg.IndexPath)
	}

	results, err := index.Search(ctx, queryText, limit, threshold)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, res := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, res.Score, snippet(res.Document.Content, 160))
	}
	return nil
}

func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
