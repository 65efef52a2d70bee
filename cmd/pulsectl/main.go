package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "pulsectl",
		Short: "CLI client for the HomePulse REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8099", "HomePulse service base URL")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(warningsCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(entitiesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show overall service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/status", os.Stdout)
		},
	}
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Trigger an immediate snapshot collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).post("/api/collector/collect", nil, os.Stdout)
		},
	}
}
