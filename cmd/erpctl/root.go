package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"rollworks.io/erp/internal/config"
	"rollworks.io/erp/internal/infrastructure"
	"rollworks.io/erp/internal/pkg/logger"
	"rollworks.io/erp/internal/repository"
)

// env is shared by every subcommand after PersistentPreRunE.
type env struct {
	configPath string
	jsonOutput bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "erpctl",
		Short:         "Maintenance CLI for the rollworks ERP database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default: ./config.yaml, /etc/rollworks/config.yaml)")
	root.PersistentFlags().BoolVar(&e.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newDiagnoseCmd(e),
		newDeleteOrderCmd(e),
		newDeleteMixCmd(e),
	)
	return root
}

func (e *env) load() error {
	cfg, err := config.LoadFile(e.configPath, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	e.cfg = cfg
	return nil
}

// open connects to the database; the caller closes the returned clients.
func (e *env) open(ctx context.Context) (*infrastructure.DatabaseClients, *repository.Store, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, e.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return db, repository.New(db.Pool), nil
}

// print writes v as indented JSON with --json, otherwise calls text.
func (e *env) print(w io.Writer, v any, text func(io.Writer)) error {
	if e.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}
