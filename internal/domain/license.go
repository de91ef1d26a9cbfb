// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// Tier は有料フェーズの有効範囲を決めるエンタイトルメント階層を表す。
type Tier string

const (
	// TierFree は無償階層を表す。検証に失敗した場合のフォールバック値。
	TierFree Tier = "free"
	// TierPro はPro階層を表す。
	TierPro Tier = "pro"
	// TierEnterprise はEnterprise階層を表す。
	TierEnterprise Tier = "enterprise"
)

// ValidTier は階層名が既知の値かどうかを返す。
func ValidTier(t Tier) bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}

// PaidTier は階層名が有償プランとして発行可能かどうかを返す。
func PaidTier(t Tier) bool {
	return t == TierPro || t == TierEnterprise
}

// TokenFormat はライセンス文字列の形式を表す。パース時に一度だけ判定される。
type TokenFormat string

const (
	// FormatSigned は署名付きトークン（SSDL1形式）を表す。
	FormatSigned TokenFormat = "signed"
	// FormatLegacy は署名のない旧形式トークンを表す。
	FormatLegacy TokenFormat = "legacy"
)

// SignedTokenPrefix は署名付きトークンのバージョンマーカー。
const SignedTokenPrefix = "SSDL1"

// Claims は署名付きトークンのペイロードを表す。
type Claims struct {
	Version   int      `json:"v"`
	TokenID   string   `json:"jti"`
	Plan      Tier     `json:"plan"`
	Subject   string   `json:"sub,omitempty"`
	IssuedAt  int64    `json:"iat"`
	NotBefore int64    `json:"nbf,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	Features  []string `json:"features,omitempty"`
}

// LicenseToken はパース済みのライセンストークンを表す。
// PayloadBytes は署名対象となった正規のバイト列であり、
// 再シリアライズしたものではない。
type LicenseToken struct {
	Format       TokenFormat
	Raw          string // 元のクレデンシャル文字列（診断用。全文はログに出さない）
	Claims       *Claims
	PayloadBytes []byte
	Signature    []byte
}

// ReasonCode は検証結果の理由コードを表す。閉じた列挙。
type ReasonCode string

const (
	// ReasonNoCredential はライセンス文字列が未指定の場合。
	ReasonNoCredential ReasonCode = "no_credential"
	// ReasonMalformedToken は署名付き形式として構造が不正な場合。
	ReasonMalformedToken ReasonCode = "malformed_token"
	// ReasonLegacyRejected は旧形式が提示されたが互換スイッチが無効な場合。
	ReasonLegacyRejected ReasonCode = "legacy_rejected"
	// ReasonLegacyPrefix は旧形式を互換パスとして受理した場合。警告付きの成功。
	ReasonLegacyPrefix ReasonCode = "legacy_prefix"
	// ReasonSignatureMismatch は署名検証に失敗した場合。
	ReasonSignatureMismatch ReasonCode = "signature_mismatch"
	// ReasonExpired は署名は正当だが有効期限切れの場合。
	ReasonExpired ReasonCode = "expired"
	// ReasonNotYetValid は署名は正当だが有効開始前の場合。
	ReasonNotYetValid ReasonCode = "not_yet_valid"
	// ReasonRevoked は失効リストに含まれる場合。署名の正当性に関わらず拒否。
	ReasonRevoked ReasonCode = "revoked"
	// ReasonKeyLoadError は公開鍵ファイルが読み込めない場合。
	ReasonKeyLoadError ReasonCode = "key_load_error"
	// ReasonRevocationLoadError は失効リストファイルが壊れている場合。
	ReasonRevocationLoadError ReasonCode = "revocation_load_error"
	// ReasonValid は検証に成功した場合。
	ReasonValid ReasonCode = "valid"
)

// ValidationResult は検証の最終判定を表す。
// 呼び出し元は機能ゲートに tier のみを使い、reason はログ用途に限る。
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Tier   Tier       `json:"tier"`
	Reason ReasonCode `json:"reason"`
}

// Denied はフェイルクローズドの拒否結果を生成する。
func Denied(reason ReasonCode) ValidationResult {
	return ValidationResult{
		Valid:  false,
		Tier:   TierFree,
		Reason: reason,
	}
}

// RevocationEntry は失効済みトークンのエントリを表す。
type RevocationEntry struct {
	TokenID   string    `json:"-"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}

// RevocationList はトークンIDから失効エントリへの不変マッピングを表す。
// 起動時に一度だけ読み込まれ、以後変更されない。
type RevocationList struct {
	entries map[string]RevocationEntry
}

// NewRevocationList は失効エントリ群からRevocationListを生成する。
func NewRevocationList(entries map[string]RevocationEntry) *RevocationList {
	copied := make(map[string]RevocationEntry, len(entries))
	for id, e := range entries {
		e.TokenID = id
		copied[id] = e
	}
	return &RevocationList{entries: copied}
}

// EmptyRevocationList は空のRevocationListを生成する。
func EmptyRevocationList() *RevocationList {
	return &RevocationList{entries: map[string]RevocationEntry{}}
}

// IsRevoked は指定されたトークンIDが失効済みかどうかを返す。
func (l *RevocationList) IsRevoked(tokenID string) bool {
	_, ok := l.entries[tokenID]
	return ok
}

// Entry は指定されたトークンIDの失効エントリを返す。
func (l *RevocationList) Entry(tokenID string) (RevocationEntry, bool) {
	e, ok := l.entries[tokenID]
	return e, ok
}

// Len は失効エントリ数を返す。
func (l *RevocationList) Len() int {
	return len(l.entries)
}

// Entries は全失効エントリのコピーを返す。リスト本体は不変のまま。
func (l *RevocationList) Entries() map[string]RevocationEntry {
	copied := make(map[string]RevocationEntry, len(l.entries))
	for id, e := range l.entries {
		copied[id] = e
	}
	return copied
}

// LicenseStatus は発行済みライセンスのステータスを表す。
type LicenseStatus string

const (
	// LicenseStatusActive は有効なライセンスを表す。
	LicenseStatusActive LicenseStatus = "active"
	// LicenseStatusRevoked は失効済みライセンスを表す。
	LicenseStatusRevoked LicenseStatus = "revoked"
)

// IssuedLicense は発行台帳に記録されたライセンスを表す。
type IssuedLicense struct {
	TokenID      string
	Customer     string
	Plan         Tier
	IssuedAt     time.Time
	ExpiresAt    *time.Time
	Status       LicenseStatus
	RevokeReason string
	RevokedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
