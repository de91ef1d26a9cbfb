package infra

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"license-entitlement-service/internal/domain"
)

// LocalSigner はローカルのEd25519秘密鍵による署名を提供する。
type LocalSigner struct {
	key ed25519.PrivateKey
}

// NewLocalSigner はPKCS#8形式のPEMファイルから秘密鍵を読み込む。
func NewLocalSigner(path string) (*LocalSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrPrivateKeyLoad, path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in %s", domain.ErrPrivateKeyLoad, path)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrPrivateKeyLoad, path, err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an Ed25519 key", domain.ErrPrivateKeyLoad, path)
	}
	return &LocalSigner{key: key}, nil
}

// Algorithm はアルゴリズム識別子を返す。
func (s *LocalSigner) Algorithm() string { return "ed25519" }

// Sign はペイロード全体に署名する。
func (s *LocalSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}

// PublicKey は対応する公開鍵を返す。
func (s *LocalSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}
