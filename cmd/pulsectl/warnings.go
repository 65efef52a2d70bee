package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func warningsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warnings",
		Short: "Manage dismissed digest warnings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dismissed warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/digest/warnings/dismissed", os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss <title...>",
		Short: "Dismiss a warning by its title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"title": strings.Join(args, " ")}
			return newAPIClient(apiFlag).post("/api/digest/warnings/dismiss", body, os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <warning-key>",
		Short: "Restore a dismissed warning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"warningKey": args[0]}
			return newAPIClient(apiFlag).post("/api/digest/warnings/restore", body, os.Stdout)
		},
	})

	return cmd
}
