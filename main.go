package main

import (
	"os"

	"github.com/baterms/chatbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
