package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"license-entitlement-service/internal/domain"
)

// RevocationFileRepository は失効リストファイルの読み書きインターフェース。
type RevocationFileRepository interface {
	Load(ctx context.Context) (*domain.RevocationList, error)
	Save(ctx context.Context, entries map[string]domain.RevocationEntry) error
}

// RevocationService はライセンスの失効操作を提供する。
// 失効は正当な署名を持つトークンをも無条件にブロックする事後的な無効化であり、
// 検証側が読む失効リストファイルと、発行台帳（あれば）の両方に反映する。
type RevocationService struct {
	revocations RevocationFileRepository
	registry    LicenseRepository

	// Now はテストで差し替えるためのフック。
	Now func() time.Time
}

// NewRevocationService は新しいRevocationServiceを生成する。
// registry が nil の場合は失効リストファイルのみを更新する。
func NewRevocationService(revocations RevocationFileRepository, registry LicenseRepository) *RevocationService {
	return &RevocationService{
		revocations: revocations,
		registry:    registry,
		Now:         time.Now,
	}
}

// Revoke は指定されたトークンIDを失効させる。
// 既に失効済みのIDを再指定しても失敗にはしない（冪等）。
func (s *RevocationService) Revoke(ctx context.Context, tokenID string, reason string) error {
	if tokenID == "" {
		return fmt.Errorf("token ID is required")
	}
	if reason == "" {
		reason = "unspecified"
	}
	revokedAt := s.Now().UTC()

	current, err := s.revocations.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading revocation list: %w", err)
	}

	entries := current.Entries()
	if _, ok := entries[tokenID]; !ok {
		entries[tokenID] = domain.RevocationEntry{
			TokenID:   tokenID,
			Reason:    reason,
			RevokedAt: revokedAt,
		}
	}

	if err := s.revocations.Save(ctx, entries); err != nil {
		return fmt.Errorf("saving revocation list: %w", err)
	}

	if s.registry != nil {
		err := s.registry.MarkRevoked(ctx, tokenID, reason, revokedAt)
		switch {
		case errors.Is(err, domain.ErrLicenseNotFound):
			// 台帳外で発行されたトークンでもファイル上の失効は有効
			slog.WarnContext(ctx, "revoked token not present in registry",
				"operation", "revoke",
				"jti", tokenID,
			)
		case errors.Is(err, domain.ErrLicenseAlreadyRevoked):
			// 冪等
		case err != nil:
			return fmt.Errorf("updating registry: %w", err)
		}
	}

	return nil
}

// Export は発行台帳の失効済みライセンスから失効リストファイルを再生成する。
func (s *RevocationService) Export(ctx context.Context) (int, error) {
	if s.registry == nil {
		return 0, fmt.Errorf("registry is not configured")
	}

	revoked, err := s.registry.FindRevoked(ctx)
	if err != nil {
		return 0, fmt.Errorf("finding revoked licenses: %w", err)
	}

	entries := make(map[string]domain.RevocationEntry, len(revoked))
	for _, lic := range revoked {
		revokedAt := s.Now().UTC()
		if lic.RevokedAt != nil {
			revokedAt = *lic.RevokedAt
		}
		entries[lic.TokenID] = domain.RevocationEntry{
			TokenID:   lic.TokenID,
			Reason:    lic.RevokeReason,
			RevokedAt: revokedAt,
		}
	}

	if err := s.revocations.Save(ctx, entries); err != nil {
		return 0, fmt.Errorf("saving revocation list: %w", err)
	}
	return len(entries), nil
}
