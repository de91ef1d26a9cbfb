package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"license-entitlement-service/internal/domain"
)

func writeRevocationFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "revocations.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing revocation file: %v", err)
	}
	return path
}

func TestRevocationLoad_MissingFileIsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does_not_exist.json")

	list, err := NewRevocationRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if list.Len() != 0 {
		t.Errorf("list has %d entries, want 0", list.Len())
	}
}

func TestRevocationLoad_MappingForm(t *testing.T) {
	path := writeRevocationFile(t, `{
  "revoked": {
    "abc123": {"reason": "refund", "revoked_at": "2023-11-14T22:13:20Z"}
  }
}`)

	list, err := NewRevocationRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !list.IsRevoked("abc123") {
		t.Error("abc123 should be revoked")
	}
	entry, ok := list.Entry("abc123")
	if !ok {
		t.Fatal("entry not found")
	}
	if entry.Reason != "refund" {
		t.Errorf("reason = %s", entry.Reason)
	}
	if entry.RevokedAt.Year() != 2023 {
		t.Errorf("revoked_at = %v", entry.RevokedAt)
	}
}

func TestRevocationLoad_LegacyArrayForm(t *testing.T) {
	path := writeRevocationFile(t, `{"revoked_jti": ["jti-1", "jti-2"]}`)

	list, err := NewRevocationRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if list.Len() != 2 {
		t.Errorf("list has %d entries, want 2", list.Len())
	}
	entry, _ := list.Entry("jti-1")
	if entry.Reason != "unspecified" {
		t.Errorf("reason = %s", entry.Reason)
	}
}

func TestRevocationLoad_BothFormsMerged(t *testing.T) {
	path := writeRevocationFile(t, `{
  "revoked": {"jti-1": {"reason": "refund", "revoked_at": "2023-11-14T22:13:20Z"}},
  "revoked_jti": ["jti-1", "jti-2"]
}`)

	list, err := NewRevocationRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if list.Len() != 2 {
		t.Errorf("list has %d entries, want 2", list.Len())
	}
	// マッピング形式のエントリが配列形式より優先される
	entry, _ := list.Entry("jti-1")
	if entry.Reason != "refund" {
		t.Errorf("reason = %s", entry.Reason)
	}
}

func TestRevocationLoad_CorruptJSON(t *testing.T) {
	path := writeRevocationFile(t, `{"revoked": [broken`)

	_, err := NewRevocationRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrRevocationLoad) {
		t.Errorf("err = %v, want ErrRevocationLoad", err)
	}
}

func TestRevocationLoad_WrongFieldType(t *testing.T) {
	path := writeRevocationFile(t, `{"revoked_jti": "not-an-array"}`)

	_, err := NewRevocationRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrRevocationLoad) {
		t.Errorf("err = %v, want ErrRevocationLoad", err)
	}
}

func TestRevocationSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revocations.json")
	repo := NewRevocationRepository(path)
	revokedAt := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	entries := map[string]domain.RevocationEntry{
		"abc123": {TokenID: "abc123", Reason: "compromised", RevokedAt: revokedAt},
	}
	if err := repo.Save(context.Background(), entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	list, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	entry, ok := list.Entry("abc123")
	if !ok {
		t.Fatal("entry not found after round trip")
	}
	if entry.Reason != "compromised" || !entry.RevokedAt.Equal(revokedAt) {
		t.Errorf("entry = %+v", entry)
	}
}

func TestRevocationSave_EmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revocations.json")
	repo := NewRevocationRepository(path)

	if err := repo.Save(context.Background(), map[string]domain.RevocationEntry{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	list, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if list.Len() != 0 {
		t.Errorf("list has %d entries, want 0", list.Len())
	}
}
