package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"license-entitlement-service/internal/domain"
	"license-entitlement-service/internal/infra"
	"license-entitlement-service/internal/middleware"
	"license-entitlement-service/internal/repository"
	"license-entitlement-service/internal/usecase"
)

// issueCmd は署名付きライセンスの発行コマンド。
// 署名鍵はローカルPEM（--private-key）かCloud KMS（--kms-key / KMS_KEY_NAME）を使う。
// DATABASE_URLが設定されていれば発行台帳にも記録する。
func issueCmd() *cobra.Command {
	var privateKey string
	var kmsKey string
	var plan string
	var customer string
	var days int
	var features string
	var out string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed license token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if kmsKey == "" {
				kmsKey = cfg.KMSKeyName
			}

			var signer usecase.TokenSigner
			switch {
			case kmsKey != "":
				kmsSigner, err := infra.NewKMSSigner(ctx, kmsKey)
				if err != nil {
					return fmt.Errorf("initializing KMS signer: %w", err)
				}
				defer func() {
					if closeErr := kmsSigner.Close(); closeErr != nil {
						slog.Error("failed to close KMS client", "error", closeErr)
					}
				}()
				signer = kmsSigner
			case privateKey != "":
				localSigner, err := infra.NewLocalSigner(privateKey)
				if err != nil {
					return fmt.Errorf("loading private key: %w", err)
				}
				signer = localSigner
			default:
				return fmt.Errorf("--private-key or --kms-key (or KMS_KEY_NAME) is required")
			}

			var registry usecase.LicenseRepository
			if cfg.DatabaseURL != "" {
				db, err := infra.NewDB(cfg.DatabaseURL, cfg)
				if err != nil {
					return fmt.Errorf("connecting to registry database: %w", err)
				}
				registry = repository.NewLicenseRepository(db)
			} else {
				slog.Warn("DATABASE_URL is not set, issuing without registry record")
			}

			var featureList []string
			for _, f := range strings.Split(features, ",") {
				if f = strings.TrimSpace(f); f != "" {
					featureList = append(featureList, f)
				}
			}

			issuer := usecase.NewLicenseIssuer(signer, registry)
			result, err := issuer.Issue(ctx, usecase.IssueRequest{
				Plan:     domain.Tier(plan),
				Customer: customer,
				Days:     days,
				Features: featureList,
			})
			if err != nil {
				middleware.WriteAuditLog(ctx, "ISSUE_LICENSE", "", "FAILED")
				return err
			}
			middleware.WriteAuditLog(ctx, "ISSUE_LICENSE", result.Claims.TokenID, "SUCCESS")

			if out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
				if err := os.WriteFile(out, []byte(result.Token+"\n"), 0o600); err != nil {
					return fmt.Errorf("writing token file: %w", err)
				}
				fmt.Printf("License token written to: %s\n", out)
			} else {
				fmt.Println(result.Token)
			}

			claims, err := json.MarshalIndent(map[string]any{"claims": result.Claims}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(claims))
			return nil
		},
	}

	cmd.Flags().StringVar(&privateKey, "private-key", "", "Path to Ed25519 private key PEM")
	cmd.Flags().StringVar(&kmsKey, "kms-key", "", "Cloud KMS key version name (or set KMS_KEY_NAME)")
	cmd.Flags().StringVar(&plan, "plan", "", "License plan: pro, enterprise (required)")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer identifier (required)")
	cmd.Flags().IntVar(&days, "days", 365, "Validity window in days")
	cmd.Flags().StringVar(&features, "features", "", "Comma-separated feature flags")
	cmd.Flags().StringVar(&out, "out", "", "Optional path to write issued token")
	cmd.MarkFlagRequired("plan")
	cmd.MarkFlagRequired("customer")
	return cmd
}
