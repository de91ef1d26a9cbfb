// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"license-entitlement-service/internal/domain"
)

// 鍵生成前のテンプレートに残るマーカー。これを含むPEMは未設定として扱う。
const placeholderMarker = "REPLACE_WITH_YOUR_ED25519_PUBLIC_KEY"

// PublicKeyRepository は検証用公開鍵ファイルの読み込みを提供する。
type PublicKeyRepository struct {
	path string
}

// NewPublicKeyRepository は新しいPublicKeyRepositoryを生成する。
func NewPublicKeyRepository(path string) *PublicKeyRepository {
	return &PublicKeyRepository{path: path}
}

// Load はEd25519公開鍵をPEMファイルから読み込む。
// ファイルの欠如・PEMの破損・鍵種別の不一致はいずれもdomain.ErrPublicKeyLoadに包んで返す。
func (r *PublicKeyRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read public key file",
			"operation", "load_public_key",
			"path", r.path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrPublicKeyLoad, r.path, err)
	}

	if strings.Contains(string(data), placeholderMarker) {
		return nil, fmt.Errorf("%w: placeholder key in %s", domain.ErrPublicKeyLoad, r.path)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in %s", domain.ErrPublicKeyLoad, r.path)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrPublicKeyLoad, r.path, err)
	}

	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an Ed25519 key", domain.ErrPublicKeyLoad, r.path)
	}
	return key, nil
}
