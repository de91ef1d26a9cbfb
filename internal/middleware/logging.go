// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"

	"license-entitlement-service/internal/domain"
)

// WriteAuditLog はライセンス操作の監査ログを出力する。
// クレデンシャル全文は決してログに出さない。
func WriteAuditLog(ctx context.Context, operation string, tokenID string, result string) {
	slog.InfoContext(ctx, "license operation completed",
		"operation", operation,
		"jti", tokenID,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}

// WriteValidationLog は検証結果の監査ログを出力する。
// ゲート判定はtierのみで行われるため、reasonは可観測性のためだけに記録する。
func WriteValidationLog(ctx context.Context, result domain.ValidationResult) {
	slog.InfoContext(ctx, "license validated",
		"operation", "validate",
		"valid", result.Valid,
		"tier", string(result.Tier),
		"reason", string(result.Reason),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
