package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"license-entitlement-service/internal/domain"
	"license-entitlement-service/internal/infra"
	"license-entitlement-service/internal/middleware"
	"license-entitlement-service/internal/repository"
	"license-entitlement-service/internal/usecase"
)

// openRegistry はDATABASE_URLが設定されていれば発行台帳を開く。
func openRegistry() (usecase.LicenseRepository, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	db, err := infra.NewDB(cfg.DatabaseURL, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to registry database: %w", err)
	}
	return repository.NewLicenseRepository(db), nil
}

// revokeCmd はライセンス失効コマンド。
// 検証側が読む失効リストファイルを更新し、台帳があればそちらにも反映する。
func revokeCmd() *cobra.Command {
	var jti string
	var reason string
	var revocationsFile string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an issued license by jti",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if revocationsFile == "" {
				revocationsFile = cfg.RevocationsFile
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}

			svc := usecase.NewRevocationService(
				repository.NewRevocationRepository(revocationsFile),
				registry,
			)
			if err := svc.Revoke(ctx, jti, reason); err != nil {
				middleware.WriteAuditLog(ctx, "REVOKE_LICENSE", jti, "FAILED")
				return err
			}

			middleware.WriteAuditLog(ctx, "REVOKE_LICENSE", jti, "SUCCESS")
			fmt.Printf("Revoked jti: %s\n", jti)
			fmt.Printf("Updated: %s\n", revocationsFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&jti, "jti", "", "License jti to revoke (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Revocation reason")
	cmd.Flags().StringVar(&revocationsFile, "revocations-file", "", "Path to revocations JSON (default: REVOCATIONS_FILE)")
	cmd.MarkFlagRequired("jti")
	return cmd
}

// exportCmd は発行台帳から失効リストファイルを再生成するコマンド。
func exportCmd() *cobra.Command {
	var revocationsFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Regenerate the revocations file from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if revocationsFile == "" {
				revocationsFile = cfg.RevocationsFile
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			if registry == nil {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			svc := usecase.NewRevocationService(
				repository.NewRevocationRepository(revocationsFile),
				registry,
			)
			count, err := svc.Export(ctx)
			if err != nil {
				middleware.WriteAuditLog(ctx, "EXPORT_REVOCATIONS", "", "FAILED")
				return err
			}

			middleware.WriteAuditLog(ctx, "EXPORT_REVOCATIONS", "", "SUCCESS")
			fmt.Printf("Exported %d revocation(s) to: %s\n", count, revocationsFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&revocationsFile, "revocations-file", "", "Path to revocations JSON (default: REVOCATIONS_FILE)")
	return cmd
}

// listCmd は発行台帳のライセンス一覧を表示するコマンド。
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List licenses recorded in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			if registry == nil {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			licenses, err := registry.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("listing licenses: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "JTI\tCUSTOMER\tPLAN\tSTATUS\tEXPIRES_AT")
			for _, lic := range licenses {
				expires := "-"
				if lic.ExpiresAt != nil {
					expires = lic.ExpiresAt.Format(time.RFC3339)
				}
				status := string(lic.Status)
				if lic.Status == domain.LicenseStatusRevoked && lic.RevokeReason != "" {
					status = fmt.Sprintf("%s (%s)", status, lic.RevokeReason)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", lic.TokenID, lic.Customer, lic.Plan, status, expires)
			}
			return w.Flush()
		},
	}
}
