// Package main は検証APIサーバーのエントリポイント。
// パイプライン内での常駐運用向け。検証自体はネットワークを介さず、
// 起動時に読み込んだ公開鍵と失効リストのスナップショットで行う。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"license-entitlement-service/config"
	"license-entitlement-service/internal/domain"
	"license-entitlement-service/internal/handler"
	"license-entitlement-service/internal/infra"
	"license-entitlement-service/internal/repository"
	"license-entitlement-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg)

	// スナップショット初期読み込み
	// 読み込み失敗でも起動は継続する。検証はフェイルクローズドでfreeに解決される。
	snapshots := repository.NewSnapshotRepository(cfg.PublicKeyFile, cfg.RevocationsFile)
	store := usecase.NewSnapshotStore(snapshots)
	if err := store.Reload(ctx); err != nil {
		slog.Warn("initial snapshot load incomplete, validations will fail closed", "error", err)
	}

	// DI
	validator := usecase.NewLicenseValidator(
		store,
		usecase.Ed25519Verifier{},
		cfg.AllowLegacy,
		domain.Tier(cfg.LegacyTier),
	)
	h := handler.NewLicenseHandler(validator, store)
	router := handler.NewRouter(h)

	// サーバー起動
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// SIGHUPでスナップショットを再読み込み、SIGTERM/SIGINTで停止
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				if err := store.Reload(ctx); err != nil {
					slog.Error("snapshot reload failed", "error", err)
				} else {
					slog.Info("snapshot reloaded")
				}
				continue
			}

			slog.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "error", err)
			}
			cancel()
			return
		}
	}()

	slog.Info("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
