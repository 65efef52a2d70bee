package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Generate and inspect digests",
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a digest now",
		RunE: func(cmd *cobra.Command, args []string) error {
			digestType, _ := cmd.Flags().GetString("type")
			notify, _ := cmd.Flags().GetBool("notify")
			path := "/api/digest/generate"
			if notify {
				path = "/api/digest/generate-and-notify"
			}
			var body interface{}
			if digestType != "" {
				body = map[string]string{"type": digestType}
			}
			return newAPIClient(apiFlag).post(path, body, os.Stdout)
		},
	}
	generate.Flags().StringP("type", "t", "", "Digest type (daily, weekly, on_demand)")
	generate.Flags().BoolP("notify", "n", false, "Send the notification after generating")
	cmd.AddCommand(generate)

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return newAPIClient(apiFlag).get(fmt.Sprintf("/api/digest/list?limit=%d", limit), os.Stdout)
		},
	}
	list.Flags().IntP("limit", "l", 10, "Maximum digests to return")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id|latest>",
		Short: "Show one digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/digest/" + args[0]
			if args[0] == "latest" {
				path = "/api/digest/latest"
			}
			return newAPIClient(apiFlag).get(path, os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the digest schedule and last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/digest/status", os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test-notification",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).post("/api/digest/test-notification", nil, os.Stdout)
		},
	})

	return cmd
}
