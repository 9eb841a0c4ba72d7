package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rollworks.io/erp/internal/infrastructure"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Manage the database schema.

Subcommands:
  up       apply pending schema migrations and the River queue tables
  down     roll back schema migrations
  version  show the applied schema version`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := infrastructure.RollbackSchema(e.cfg.Database.DSN(), steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, dirty, ok, err := infrastructure.SchemaVersion(e.cfg.Database.DSN())
			if err != nil {
				return err
			}
			out := struct {
				Version uint `json:"version"`
				Dirty   bool `json:"dirty"`
				Applied bool `json:"applied"`
			}{v, dirty, ok}
			return e.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				if !ok {
					fmt.Fprintln(w, "no migrations applied")
					return
				}
				fmt.Fprintf(w, "version %d (dirty=%t)\n", v, dirty)
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
