package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"certtrack/internal/store"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema and exit",
	Long: `Creates the SQLite database at the configured path, applies the schema
and any pending migrations, then exits. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Database.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("database ready", zap.String("path", cfg.Database.Path))
		return nil
	},
}
