// main.go
package main

import (
	"fmt"
	"log"
	"os"

	"alumni-portal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "alumni-portal",
		Short:   "Alumni association site backend: accounts, sessions and payments",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load environment variables from .env file
			if err := godotenv.Load(); err != nil {
				log.Println("INFO: no .env file found, proceeding with environment variables")
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
