package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "batebot",
	Short: "Multilingual RAG chatbot for the Bate rental management platform",
	Long: `Batebot answers landlord, tenant, and admin questions about the Bate
rental management platform in English, Amharic, and Afaan Oromo. It
retrieves answers from an embedded knowledge base using vector search
and generates responses with an LLM.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".batebot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
