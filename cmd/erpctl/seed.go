package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rollworks.io/erp/internal/seed"
)

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed built-in roles, module permissions and the default admin",
		Long: `Seed built-in roles, module permissions and the default admin.

Safe to run repeatedly: roles and grants are upserted and the admin
(seed.admin_username / SEED_ADMIN_USERNAME) is created only when absent.
Migrations must have been applied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, store, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := seed.Run(cmd.Context(), store, e.cfg.Seed.AdminUsername, e.cfg.Seed.AdminPassword)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "roles: %d\npermissions: %d\nadmin created: %t\n",
					res.Roles, res.Permissions, res.AdminCreated)
			})
		},
	}
}
