package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"objdeploy/internal/config"
	"objdeploy/internal/storage"
)

// openSession resolves the connection, opens it and selects the database.
func openSession(ctx context.Context, d config.Deploy, log *slog.Logger) (storage.Session, error) {
	cfg, err := storage.ResolveConnection(d.ConnectionsFile, d.Connection)
	if err != nil {
		return nil, err
	}
	log.Debug("connection resolved", "connection", d.Connection, "kind", cfg.Kind)

	sess, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := sess.UseContainer(ctx, d.Database); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("use database %s: %w", d.Database, err)
	}
	return sess, nil
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the database connection",
		Long: `Check the configuration, open the connection and select the database
without deploying anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.settings(config.KeyPattern)
			if err != nil {
				return err
			}
			sess, err := openSession(cmd.Context(), d, a.logger())
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Fprintln(a.stdout, "Configuration is valid and database is accessible")
			return nil
		},
	}
}
