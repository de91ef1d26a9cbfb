package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"license-entitlement-service/internal/domain"
	"license-entitlement-service/internal/middleware"
	"license-entitlement-service/internal/repository"
	"license-entitlement-service/internal/usecase"
)

// failClosedJSON は結果のエンコードすら失敗した場合の最終フォールバック。
// 呼び出し元は常にパース可能なJSONを期待するため、ここには到達しないはずでも備える。
const failClosedJSON = `{"valid":false,"tier":"free","reason":"validation_error"}`

// validateCmd はライセンス検証コマンド。
// ライセンスキーはプロセス一覧への漏洩を避けるため環境変数LICENSE_KEYからのみ読む。
// 判定結果は常に整形済みJSONとして標準出力に1行で出力し、終了コードは0。
func validateCmd() *cobra.Command {
	var publicKeyFile string
	var revocationsFile string
	var allowLegacy bool
	var legacyTier string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate LICENSE_KEY and print the entitlement decision as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			if publicKeyFile == "" {
				publicKeyFile = cfg.PublicKeyFile
			}
			if revocationsFile == "" {
				revocationsFile = cfg.RevocationsFile
			}
			if !cmd.Flags().Changed("allow-legacy") {
				allowLegacy = cfg.AllowLegacy
			}
			if legacyTier == "" {
				legacyTier = cfg.LegacyTier
			}

			snapshots := repository.NewSnapshotRepository(publicKeyFile, revocationsFile)
			validator := usecase.NewLicenseValidator(
				snapshots,
				usecase.Ed25519Verifier{},
				allowLegacy,
				domain.Tier(legacyTier),
			)

			ctx := cmd.Context()
			result := validator.Validate(ctx, os.Getenv("LICENSE_KEY"))
			middleware.WriteValidationLog(ctx, result)

			out, err := json.Marshal(result)
			if err != nil {
				fmt.Println(failClosedJSON)
				return
			}
			fmt.Println(string(out))
		},
	}

	cmd.Flags().StringVar(&publicKeyFile, "public-key-file", "", "Path to Ed25519 public key PEM (default: PUBLIC_KEY_FILE)")
	cmd.Flags().StringVar(&revocationsFile, "revocations-file", "", "Path to revocations JSON (default: REVOCATIONS_FILE)")
	cmd.Flags().BoolVar(&allowLegacy, "allow-legacy", false, "Accept legacy unsigned license format")
	cmd.Flags().StringVar(&legacyTier, "legacy-tier", "", "Fixed tier assigned to accepted legacy licenses (default: LEGACY_TIER)")
	return cmd
}

// phasesCmd は指定された階層で有効なパイプラインフェーズを表示する。
func phasesCmd() *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "phases",
		Short: "Print the pipeline phases enabled for a tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := domain.Tier(tier)
			if !domain.ValidTier(t) {
				return fmt.Errorf("unknown tier %q", tier)
			}

			out, err := json.Marshal(map[string]any{
				"tier":   t,
				"phases": usecase.EnabledPhases(t),
			})
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", string(domain.TierFree), "Entitlement tier: free, pro, enterprise")
	return cmd
}
