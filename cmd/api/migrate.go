package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/recipeshop-checkout/internal/config"
	"github.com/01moynul/recipeshop-checkout/internal/database"
	"github.com/01moynul/recipeshop-checkout/internal/logging"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the MySQL schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *sql.DB) error {
				if err := database.MigrateDown(db, steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(db *sql.DB) error {
					if err := database.MigrateUp(db); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(db *sql.DB) error {
					v, dirty, err := database.MigrationVersion(db)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withDB(cmd *cobra.Command, fn func(db *sql.DB) error) error {
	dsn, err := config.DatabaseDSN()
	if err != nil {
		return err
	}
	log := logging.New("warn", "console")
	db, err := database.OpenDB(cmdContext(cmd), dsn, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
