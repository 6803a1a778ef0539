// Package main implements the entry point for the tasks API server, which
// stores to-do items and generates task lists from a goal prompt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Running the binary without a subcommand
// starts the server.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tasks-api",
		Short:         "Task tracking API with prompt-driven task generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, name := range []string{"up", "down", "status", "version"} {
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: migrateDescriptions[name],
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return runMigrateCommand(c.Context(), name, c.OutOrStdout())
			},
		})
	}
	return cmd
}

var migrateDescriptions = map[string]string{
	"up":      "Apply all pending migrations",
	"down":    "Roll back the most recent migration",
	"status":  "Show the state of every migration",
	"version": "Print the current schema version",
}
