package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/mixing"
	apperrors "rollworks.io/erp/internal/pkg/errors"
)

func newDeleteOrderCmd(e *env) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "delete-order ID",
		Short: "Delete an order with its job orders, rolls, checks, products and messages",
		Long: `Delete an order with every dependent row, children first.

cascade.mode selects transactional (all or nothing) or best_effort
(each step on its own, failures reported together). --preview runs the
cascade in a transaction that is always rolled back and prints the counts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, store, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			orch := cascade.New(store, cascade.Options{
				Mode:    e.cfg.Cascade.Mode,
				Timeout: e.cfg.Cascade.Timeout,
			})
			var report cascade.Report
			if preview {
				report, err = orch.Preview(cmd.Context(), id)
				if err == nil && !report.Found() {
					err = apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("order %d not found", id))
				}
			} else {
				report, err = orch.DeleteOrder(cmd.Context(), id)
			}
			if perr := e.print(cmd.OutOrStdout(), report, func(w io.Writer) { printReport(w, report) }); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "report what would be deleted without deleting")
	return cmd
}

func newDeleteMixCmd(e *env) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "delete-mix ID",
		Short: "Delete a mix material with its items and machine links",
		Long: `Delete a mix material with its items and machine links.

By default the quantity of every item is returned to its raw material.
--purge removes the rows without touching raw material stock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, store, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			var report cascade.Report
			if purge {
				orch := cascade.New(store, cascade.Options{
					Mode:    e.cfg.Cascade.Mode,
					Timeout: e.cfg.Cascade.Timeout,
				})
				report, err = orch.DeleteMixMaterial(cmd.Context(), id)
			} else {
				report, err = mixing.NewService(store.Ledger(), nil).DeleteMixMaterial(cmd.Context(), id)
			}
			if perr := e.print(cmd.OutOrStdout(), report, func(w io.Writer) { printReport(w, report) }); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete without restoring raw material stock")
	return cmd
}

func printReport(w io.Writer, r cascade.Report) {
	verb := "deleted"
	if r.DryRun {
		verb = "would delete"
	}
	if !r.Found() {
		fmt.Fprintf(w, "%s %v: nothing %s\n", r.Root, r.ID, verb)
		return
	}
	fmt.Fprintf(w, "%s %v (%s): %s %d row(s)\n", r.Root, r.ID, r.Mode, verb, r.Total())
	tables := make([]string, 0, len(r.Rows))
	for t := range r.Rows {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "  %-22s %d\n", t, r.Rows[t])
	}
}
