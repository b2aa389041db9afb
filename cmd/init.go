package cmd

import (
	"github.com/spf13/cobra"

	"github.com/baterms/chatbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize batebot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure batebot and generates a .batebot.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
