package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"license-entitlement-service/internal/domain"
)

// Snapshot は検証に使う公開鍵と失効リストの不変な読み込み結果を表す。
// 個別の読み込み失敗も保持し、検証時にフェイルクローズドへ解決される。
type Snapshot struct {
	PublicKey   []byte
	KeyErr      error
	Revocations *domain.RevocationList
	RevErr      error
	LoadedAt    time.Time
}

// SnapshotStore は長期稼働プロセス向けのスナップショット保持を提供する。
// 更新は常に新しいスナップショットへのスワップで行い、既存の読み手からは
// 置き換え前後いずれかの一貫した状態だけが見える。
type SnapshotStore struct {
	source  SnapshotRepository
	current atomic.Pointer[Snapshot]

	// Now はテストで差し替えるためのフック。
	Now func() time.Time
}

// NewSnapshotStore は新しいSnapshotStoreを生成する。
func NewSnapshotStore(source SnapshotRepository) *SnapshotStore {
	return &SnapshotStore{
		source: source,
		Now:    time.Now,
	}
}

// Reload はファイルを読み直して新しいスナップショットにスワップする。
// 一部の読み込みが失敗してもスワップは行い、失敗は結合エラーとして返す。
func (s *SnapshotStore) Reload(ctx context.Context) error {
	snap := &Snapshot{LoadedAt: s.Now().UTC()}
	snap.PublicKey, snap.KeyErr = s.source.LoadPublicKey(ctx)
	snap.Revocations, snap.RevErr = s.source.LoadRevocations(ctx)
	s.current.Store(snap)
	return errors.Join(snap.KeyErr, snap.RevErr)
}

// Current は現在のスナップショットを返す。未読み込みの場合はnil。
func (s *SnapshotStore) Current() *Snapshot {
	return s.current.Load()
}

// LoadPublicKey はSnapshotRepositoryとして現在のスナップショットの公開鍵を返す。
func (s *SnapshotStore) LoadPublicKey(ctx context.Context) ([]byte, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrPublicKeyLoad
	}
	if snap.KeyErr != nil {
		return nil, snap.KeyErr
	}
	return snap.PublicKey, nil
}

// LoadRevocations はSnapshotRepositoryとして現在のスナップショットの失効リストを返す。
func (s *SnapshotStore) LoadRevocations(ctx context.Context) (*domain.RevocationList, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrRevocationLoad
	}
	if snap.RevErr != nil {
		return nil, snap.RevErr
	}
	return snap.Revocations, nil
}
