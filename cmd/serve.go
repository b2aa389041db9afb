package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/baterms/chatbot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatbot HTTP server",
	Long: `Starts the HTTP server exposing the chat API: POST /chat, a WebSocket
variant at /chat/ws, health and stats probes, and POST /knowledge/refresh
for reloading the knowledge base without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override the configured server port")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.ServerPort = port
	}
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	log.Printf("preparing knowledge base")
	if err := eng.Bootstrap(ctx); err != nil {
		return fmt.Errorf("preparing knowledge base: %w", err)
	}

	srv := server.New(server.Config{Port: cfg.ServerPort, AllowAll: allowAll}, eng)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
