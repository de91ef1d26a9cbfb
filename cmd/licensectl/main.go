// Package main はCLIツールのエントリポイント。
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"license-entitlement-service/config"
	"license-entitlement-service/internal/infra"
)

const version = "1.0.0"

// 全コマンド共通の設定。PersistentPreRunで読み込まれる。
var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "licensectl",
		Short: "License & entitlement verification CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .envファイルを読み込む（存在しない場合は無視）
			// 既存の環境変数は上書きしない
			_ = godotenv.Load()
			cfg = config.Load()
			infra.SetupLogger(cfg)
		},
	}

	// サブコマンド登録
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(phasesCmd())
	rootCmd.AddCommand(issueCmd())
	rootCmd.AddCommand(revokeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("licensectl version %s\n", version)
		},
	}
}
