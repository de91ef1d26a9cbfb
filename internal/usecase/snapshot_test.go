package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"license-entitlement-service/internal/domain"
)

func TestSnapshotStore_BeforeFirstReload(t *testing.T) {
	store := NewSnapshotStore(&mockSnapshotRepository{})

	if store.Current() != nil {
		t.Error("Current should be nil before first reload")
	}
	if _, err := store.LoadPublicKey(context.Background()); !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("LoadPublicKey err = %v, want ErrPublicKeyLoad", err)
	}
	if _, err := store.LoadRevocations(context.Background()); !errors.Is(err, domain.ErrRevocationLoad) {
		t.Errorf("LoadRevocations err = %v, want ErrRevocationLoad", err)
	}
}

func TestSnapshotStore_ReloadSwapsState(t *testing.T) {
	pub, _ := testKeypair(t)
	source := &mockSnapshotRepository{publicKey: pub}
	store := NewSnapshotStore(source)
	store.Now = func() time.Time { return testNow }

	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	snap := store.Current()
	if snap == nil {
		t.Fatal("Current is nil after reload")
	}
	if !snap.LoadedAt.Equal(testNow.UTC()) {
		t.Errorf("LoadedAt = %v", snap.LoadedAt)
	}
	got, err := store.LoadPublicKey(context.Background())
	if err != nil {
		t.Fatalf("LoadPublicKey failed: %v", err)
	}
	if string(got) != string(pub) {
		t.Error("public key does not match source")
	}
}

func TestSnapshotStore_PartialFailureStillSwaps(t *testing.T) {
	source := &mockSnapshotRepository{
		keyErr:      domain.ErrPublicKeyLoad,
		revocations: domain.EmptyRevocationList(),
	}
	store := NewSnapshotStore(source)

	err := store.Reload(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("Reload err = %v, want ErrPublicKeyLoad", err)
	}

	// 鍵の読み込みに失敗しても失効リストは読める
	if store.Current() == nil {
		t.Fatal("snapshot should swap even on partial failure")
	}
	if _, err := store.LoadPublicKey(context.Background()); !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("LoadPublicKey err = %v", err)
	}
	if _, err := store.LoadRevocations(context.Background()); err != nil {
		t.Errorf("LoadRevocations failed: %v", err)
	}
}

func TestSnapshotStore_ReloadReplacesPreviousErrors(t *testing.T) {
	pub, _ := testKeypair(t)
	source := &mockSnapshotRepository{keyErr: domain.ErrPublicKeyLoad, revErr: domain.ErrRevocationLoad}
	store := NewSnapshotStore(source)

	if err := store.Reload(context.Background()); err == nil {
		t.Fatal("first reload should fail")
	}

	// ファイルが修復された後のリロードで正常状態に戻る
	source.keyErr = nil
	source.revErr = nil
	source.publicKey = pub
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("second reload failed: %v", err)
	}
	if _, err := store.LoadPublicKey(context.Background()); err != nil {
		t.Errorf("LoadPublicKey failed after recovery: %v", err)
	}
}

func TestSnapshotStore_ServesValidator(t *testing.T) {
	pub, priv := testKeypair(t)
	source := &mockSnapshotRepository{publicKey: pub}
	store := NewSnapshotStore(source)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	v := newTestValidator(store, false, domain.TierPro)

	result := v.Validate(context.Background(), signedToken(t, priv, claimsPayload(t, defaultClaims())))
	if !result.Valid {
		t.Errorf("result = %+v, want valid", result)
	}
}
