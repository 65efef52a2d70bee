package main

import (
	"os"

	"github.com/spf13/cobra"
)

func entitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Inspect and configure monitored entities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List monitored entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/entities", os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "discover",
		Short: "Discover entities from Home Assistant with suggested configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/entities/discover", os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "auto-configure",
		Short: "Register every discovered entity with its suggested priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).post("/api/entities/auto-configure", nil, os.Stdout)
		},
	})

	priority := &cobra.Command{
		Use:   "priority <entity-id> <critical|normal|low|ignore>",
		Short: "Set one entity's monitoring priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"priority": args[1]}
			return newAPIClient(apiFlag).post("/api/entities/"+args[0]+"/priority", body, os.Stdout)
		},
	}
	cmd.AddCommand(priority)

	return cmd
}
