package main

import (
	"os"

	"github.com/spf13/cobra"
)

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage user notes attached to warnings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).get("/api/digest/notes", os.Stdout)
		},
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a note for a warning title",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			note, _ := cmd.Flags().GetString("note")
			body := map[string]string{"title": title, "note": note}
			return newAPIClient(apiFlag).post("/api/digest/note", body, os.Stdout)
		},
	}
	add.Flags().StringP("title", "t", "", "Warning title the note applies to (required)")
	add.Flags().StringP("note", "m", "", "Note text (required)")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("note")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(apiFlag).delete("/api/digest/note/"+args[0], os.Stdout)
		},
	})

	return cmd
}
