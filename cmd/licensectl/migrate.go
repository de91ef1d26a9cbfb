package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"license-entitlement-service/internal/infra"
	"license-entitlement-service/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the license registry schema",
	Long:  "Manage the database schema of the issued-license registry",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update the registry schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}

		db, err := infra.NewDB(cfg.DatabaseURL, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.AutoMigrate(&repository.IssuedLicenseModel{}); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		fmt.Println("Registry schema is up to date.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry schema status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}

		db, err := infra.NewDB(cfg.DatabaseURL, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TABLE\tSTATUS")

		status := "missing"
		if db.Migrator().HasTable(&repository.IssuedLicenseModel{}) {
			status = "present"
		}
		fmt.Fprintf(w, "%s\t%s\n", repository.IssuedLicenseModel{}.TableName(), status)

		return w.Flush()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
