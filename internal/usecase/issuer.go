package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"license-entitlement-service/internal/domain"
)

// TokenSigner は署名生成のインターフェース。ローカル鍵とCloud KMSを差し替え可能にする。
type TokenSigner interface {
	Algorithm() string
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}

// LicenseRepository は発行台帳のデータアクセスインターフェース。
type LicenseRepository interface {
	Create(ctx context.Context, license *domain.IssuedLicense) error
	FindByTokenID(ctx context.Context, tokenID string) (*domain.IssuedLicense, error)
	FindAll(ctx context.Context) ([]*domain.IssuedLicense, error)
	FindRevoked(ctx context.Context) ([]*domain.IssuedLicense, error)
	MarkRevoked(ctx context.Context, tokenID string, reason string, revokedAt time.Time) error
}

// IssueRequest はライセンス発行の入力を表す。
type IssueRequest struct {
	Plan     domain.Tier
	Customer string
	Days     int
	Features []string
}

// IssueResult は発行されたトークンとそのクレームを表す。
type IssueResult struct {
	Token  string
	Claims *domain.Claims
}

// LicenseIssuer は署名付きライセンスの発行を提供する。
// registry が nil の場合は台帳への記録を行わない（スタンドアロン発行）。
type LicenseIssuer struct {
	signer   TokenSigner
	registry LicenseRepository

	// Now と NewTokenID はテストで差し替えるためのフック。
	Now        func() time.Time
	NewTokenID func() string
}

// NewLicenseIssuer は新しいLicenseIssuerを生成する。
func NewLicenseIssuer(signer TokenSigner, registry LicenseRepository) *LicenseIssuer {
	return &LicenseIssuer{
		signer:     signer,
		registry:   registry,
		Now:        time.Now,
		NewTokenID: func() string { return uuid.New().String() },
	}
}

// canonicalPayload はクレームを正規形式（キー昇順・空白なし）のJSONに変換する。
// 署名対象はこのバイト列そのもの。検証側は受領したバイト列をそのまま検証するため、
// 発行後にこの形式を変えても既発行トークンは壊れない。
func canonicalPayload(claims *domain.Claims) ([]byte, error) {
	fields := map[string]any{
		"v":    claims.Version,
		"jti":  claims.TokenID,
		"plan": claims.Plan,
		"sub":  claims.Subject,
		"iat":  claims.IssuedAt,
		"nbf":  claims.NotBefore,
		"exp":  claims.ExpiresAt,
	}
	if len(claims.Features) > 0 {
		fields["features"] = claims.Features
	}
	// encoding/json はマップのキーを昇順で出力する
	return json.Marshal(fields)
}

// Issue は新しい署名付きライセンストークンを発行する。
func (s *LicenseIssuer) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if !domain.PaidTier(req.Plan) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPlan, req.Plan)
	}
	if req.Customer == "" {
		return nil, fmt.Errorf("customer is required")
	}
	days := req.Days
	if days <= 0 {
		days = 365
	}

	now := s.Now()
	claims := &domain.Claims{
		Version:   1,
		TokenID:   s.NewTokenID(),
		Plan:      req.Plan,
		Subject:   req.Customer,
		IssuedAt:  now.Unix(),
		NotBefore: now.Unix(),
		ExpiresAt: now.Add(time.Duration(days) * 24 * time.Hour).Unix(),
		Features:  req.Features,
	}

	payload, err := canonicalPayload(claims)
	if err != nil {
		return nil, fmt.Errorf("encoding claims: %w", err)
	}
	signature, err := s.signer.Sign(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	token := fmt.Sprintf("%s.%s.%s",
		domain.SignedTokenPrefix,
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(signature),
	)

	if s.registry != nil {
		expiresAt := time.Unix(claims.ExpiresAt, 0).UTC()
		record := &domain.IssuedLicense{
			TokenID:   claims.TokenID,
			Customer:  claims.Subject,
			Plan:      claims.Plan,
			IssuedAt:  now.UTC(),
			ExpiresAt: &expiresAt,
			Status:    domain.LicenseStatusActive,
		}
		if err := s.registry.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("recording issued license: %w", err)
		}
	}

	return &IssueResult{Token: token, Claims: claims}, nil
}
