// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"license-entitlement-service/internal/domain"
)

// SnapshotRepository は公開鍵と失効リストの読み込みインターフェース。
type SnapshotRepository interface {
	LoadPublicKey(ctx context.Context) ([]byte, error)
	LoadRevocations(ctx context.Context) (*domain.RevocationList, error)
}

// SignatureVerifier は署名検証アルゴリズムのインターフェース。
// 検証対象は署名時の正規バイト列そのものであり、再シリアライズではない。
type SignatureVerifier interface {
	Algorithm() string
	Verify(publicKey, payload, signature []byte) bool
}

// Ed25519Verifier はEd25519による署名検証を実装する。
type Ed25519Verifier struct{}

// Algorithm はアルゴリズム識別子を返す。
func (Ed25519Verifier) Algorithm() string { return "ed25519" }

// Verify はペイロード全体に対する署名を検証する。失敗はすべて偽造として扱う。
func (Ed25519Verifier) Verify(publicKey, payload, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature)
}

// ParseToken は生のライセンス文字列を分類・デコードする。
// SSDL1マーカーで始まる文字列はSigned候補、それ以外の非空文字列はすべて
// Legacyに分類する。形式の判定はここで一度だけ行い、下流で再判定しない。
func ParseToken(raw string) (*domain.LicenseToken, error) {
	if !strings.HasPrefix(raw, domain.SignedTokenPrefix+".") {
		return &domain.LicenseToken{
			Format: domain.FormatLegacy,
			Raw:    raw,
		}, nil
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrMalformedToken, len(parts))
	}

	payload, err := decodeBase64URL(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload segment: %v", domain.ErrMalformedToken, err)
	}
	signature, err := decodeBase64URL(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature segment: %v", domain.ErrMalformedToken, err)
	}

	claims, err := decodeClaims(payload)
	if err != nil {
		return nil, err
	}

	return &domain.LicenseToken{
		Format:       domain.FormatSigned,
		Raw:          raw,
		Claims:       claims,
		PayloadBytes: payload,
		Signature:    signature,
	}, nil
}

// decodeBase64URL はパディングなしbase64urlをデコードする。パディング付きも許容する。
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// decodeClaims はペイロードを厳格なスキーマでデコードする。
// 未知フィールドや不正なプランは部分的に受理せず、全体を不正として扱う。
func decodeClaims(payload []byte) (*domain.Claims, error) {
	dec := json.NewDecoder(strings.NewReader(string(payload)))
	dec.DisallowUnknownFields()

	var claims domain.Claims
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: claims schema: %v", domain.ErrMalformedToken, err)
	}
	if claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing jti", domain.ErrMalformedToken)
	}
	if !domain.PaidTier(claims.Plan) {
		return nil, fmt.Errorf("%w: plan %q", domain.ErrMalformedToken, claims.Plan)
	}
	return &claims, nil
}

// LicenseValidator はライセンス検証エンジンを提供する。
// 判定は単一パスの決定的な優先順位に従い、常にちょうど1つの規則が適用される。
// いかなる内部エラーも呼び出し元には伝播せず、free階層への拒否結果に収束する。
type LicenseValidator struct {
	snapshots   SnapshotRepository
	verifier    SignatureVerifier
	allowLegacy bool
	legacyTier  domain.Tier

	// Now は現在時刻を返す。テストで差し替えるためのフック。
	Now func() time.Time
}

// NewLicenseValidator は新しいLicenseValidatorを生成する。
// legacyTier は旧形式トークンを受理する際に割り当てる固定階層。
// 旧形式の内容から階層を推定することはない。
func NewLicenseValidator(snapshots SnapshotRepository, verifier SignatureVerifier, allowLegacy bool, legacyTier domain.Tier) *LicenseValidator {
	if !domain.PaidTier(legacyTier) {
		legacyTier = domain.TierFree
	}
	return &LicenseValidator{
		snapshots:   snapshots,
		verifier:    verifier,
		allowLegacy: allowLegacy,
		legacyTier:  legacyTier,
		Now:         time.Now,
	}
}

// Validate は生のライセンス文字列を検証し最終判定を返す。
// 優先順位（高い順）:
//  1. 空のクレデンシャル
//  2. パース失敗
//  3. 旧形式かつ互換スイッチ無効
//  4. 旧形式かつ互換スイッチ有効（固定階層で受理）
//  5. 署名不一致
//  6. 期限切れ・有効開始前
//  7. 失効済み
//  8. 受理（ペイロードの宣言階層）
func (v *LicenseValidator) Validate(ctx context.Context, raw string) domain.ValidationResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Denied(domain.ReasonNoCredential)
	}

	token, err := ParseToken(raw)
	if err != nil {
		slog.WarnContext(ctx, "license token malformed",
			"operation", "validate",
			"error", err,
		)
		return domain.Denied(domain.ReasonMalformedToken)
	}

	if token.Format == domain.FormatLegacy {
		return v.resolveLegacy(ctx)
	}
	return v.resolveSigned(ctx, token)
}

// resolveLegacy は旧形式トークンの判定を行う。
// 旧形式には検証可能な署名もトークンIDもないため、失効リストとは照合できない。
func (v *LicenseValidator) resolveLegacy(ctx context.Context) domain.ValidationResult {
	if !v.allowLegacy {
		return domain.Denied(domain.ReasonLegacyRejected)
	}
	// 受理するが、廃止形式からの移行を追跡できるよう常に警告フラグを立てる
	slog.WarnContext(ctx, "legacy license format accepted",
		"operation", "validate",
		"tier", v.legacyTier,
	)
	return domain.ValidationResult{
		Valid:  true,
		Tier:   v.legacyTier,
		Reason: domain.ReasonLegacyPrefix,
	}
}

// resolveSigned は署名付きトークンの判定を行う。
func (v *LicenseValidator) resolveSigned(ctx context.Context, token *domain.LicenseToken) domain.ValidationResult {
	publicKey, err := v.snapshots.LoadPublicKey(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "public key unavailable",
			"operation", "validate",
			"error", err,
		)
		return domain.Denied(domain.ReasonKeyLoadError)
	}

	if !v.verifier.Verify(publicKey, token.PayloadBytes, token.Signature) {
		slog.WarnContext(ctx, "license signature verification failed",
			"operation", "validate",
			"algorithm", v.verifier.Algorithm(),
			"jti", token.Claims.TokenID,
		)
		return domain.Denied(domain.ReasonSignatureMismatch)
	}

	now := v.Now().Unix()
	if token.Claims.ExpiresAt != 0 && token.Claims.ExpiresAt < now {
		return domain.Denied(domain.ReasonExpired)
	}
	if token.Claims.NotBefore != 0 && token.Claims.NotBefore > now {
		return domain.Denied(domain.ReasonNotYetValid)
	}

	revocations, err := v.snapshots.LoadRevocations(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "revocation list unavailable",
			"operation", "validate",
			"error", err,
		)
		return domain.Denied(domain.ReasonRevocationLoadError)
	}
	if revocations.IsRevoked(token.Claims.TokenID) {
		slog.WarnContext(ctx, "revoked license presented",
			"operation", "validate",
			"jti", token.Claims.TokenID,
		)
		return domain.Denied(domain.ReasonRevoked)
	}

	return domain.ValidationResult{
		Valid:  true,
		Tier:   token.Claims.Plan,
		Reason: domain.ReasonValid,
	}
}
