package repository

import (
	"context"

	"license-entitlement-service/internal/domain"
)

// SnapshotRepository は公開鍵と失効リストの静的ファイル読み込みをまとめる。
// 読み込みのみで副作用はない。
type SnapshotRepository struct {
	keys        *PublicKeyRepository
	revocations *RevocationRepository
}

// NewSnapshotRepository は新しいSnapshotRepositoryを生成する。
func NewSnapshotRepository(publicKeyPath, revocationsPath string) *SnapshotRepository {
	return &SnapshotRepository{
		keys:        NewPublicKeyRepository(publicKeyPath),
		revocations: NewRevocationRepository(revocationsPath),
	}
}

// LoadPublicKey は検証用公開鍵を読み込む。
func (r *SnapshotRepository) LoadPublicKey(ctx context.Context) ([]byte, error) {
	return r.keys.Load(ctx)
}

// LoadRevocations は失効リストを読み込む。
func (r *SnapshotRepository) LoadRevocations(ctx context.Context) (*domain.RevocationList, error) {
	return r.revocations.Load(ctx)
}
