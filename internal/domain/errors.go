package domain

import "errors"

var (
	// ErrMalformedToken は署名付き形式として構造が不正なトークンのエラー。
	ErrMalformedToken = errors.New("malformed token")

	// ErrPublicKeyLoad は公開鍵ファイルが読み込めない・不正な場合のエラー。
	ErrPublicKeyLoad = errors.New("public key load failed")

	// ErrRevocationLoad は失効リストファイルが壊れている場合のエラー。
	// ファイルが存在しない場合はエラーではなく空リストとして扱う。
	ErrRevocationLoad = errors.New("revocation list load failed")

	// ErrLicenseNotFound は指定されたトークンIDのライセンスが台帳に存在しない場合のエラー。
	ErrLicenseNotFound = errors.New("license not found")

	// ErrLicenseAlreadyRevoked は指定されたライセンスが既に失効済みの場合のエラー。
	ErrLicenseAlreadyRevoked = errors.New("license is already revoked")

	// ErrInvalidPlan は発行可能なプランでない場合のエラー。
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrPrivateKeyLoad は秘密鍵ファイルが読み込めない・不正な場合のエラー。
	ErrPrivateKeyLoad = errors.New("private key load failed")
)
