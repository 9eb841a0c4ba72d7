package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"rollworks.io/erp/internal/diagnostics"
	"rollworks.io/erp/internal/pkg/worker"
	"rollworks.io/erp/internal/repository"
)

func newDiagnoseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check connectivity, row counts and orphaned rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, store, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			pools, err := worker.NewPools(cmd.Context(), worker.PoolConfig{
				GeneralPoolSize:     1,
				DiagnosticsPoolSize: e.cfg.Worker.DiagnosticsPoolSize,
			})
			if err != nil {
				return fmt.Errorf("init worker pools: %w", err)
			}
			defer pools.Shutdown()

			report := diagnostics.New(db.Pool, store, pools.Diagnostics, repository.AllTables).Run(cmd.Context())
			if err := e.print(cmd.OutOrStdout(), report, func(w io.Writer) { printDiagnostics(w, report) }); err != nil {
				return err
			}
			if report.Status != diagnostics.StatusOK {
				return fmt.Errorf("diagnostics status %s", report.Status)
			}
			return nil
		},
	}
}

func printDiagnostics(w io.Writer, r diagnostics.Report) {
	fmt.Fprintf(w, "status: %s (database %s, %s)\n", r.Status, r.Database, r.Latency)
	tables := make([]string, 0, len(r.Tables))
	for t := range r.Tables {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "  %-22s %d\n", t, r.Tables[t])
	}
	for _, o := range r.Orphans {
		if o.Count > 0 {
			fmt.Fprintf(w, "orphans: %s: %d\n", o.Edge, o.Count)
		}
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
}
