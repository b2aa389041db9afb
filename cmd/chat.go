package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baterms/chatbot/internal/engine"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	Long:  `Starts an interactive chat session. Type a message and press enter; type "exit" or press Ctrl-D to quit.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("language", "", "response language: english, amharic, or afaan_oromo (auto-detected when empty)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	lang, _ := cmd.Flags().GetString("language")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	fmt.Println("Preparing knowledge base...")
	if err := eng.Bootstrap(ctx); err != nil {
		return fmt.Errorf("preparing knowledge base: %w", err)
	}

	sessionID := uuid.New().String()
	fmt.Println("Ready. Ask me anything about the platform (type \"exit\" to quit).")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		resp, err := eng.ProcessMessage(ctx, engine.Request{
			Message:   line,
			Language:  lang,
			SessionID: sessionID,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", resp.Response)
	}
}
