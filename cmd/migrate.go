package cmd

import (
	"fmt"

	"partnerdispatch/internal/adapters/out/postgres"
	"partnerdispatch/internal/adapters/out/postgres/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := LoadConfig()
				if err != nil {
					return err
				}
				if err = postgres.MigrateUp(cfg.DSN()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the last migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := LoadConfig()
				if err != nil {
					return err
				}
				if err = postgres.MigrateDown(cfg.DSN()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "reverted one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := LoadConfig()
				if err != nil {
					return err
				}
				db, err := migrations.Open(cfg.DSN())
				if err != nil {
					return err
				}
				defer db.Close()

				version, dirty, err := migrations.Version(db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}
