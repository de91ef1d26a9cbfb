package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"license-entitlement-service/internal/domain"
)

// revocationFile は失効リストファイルの形式。
// revoked はトークンIDから失効エントリへのマッピング。
// revoked_jti は旧ツールが出力していた配列形式で、読み込み時のみ受理する。
type revocationFile struct {
	Revoked    map[string]revocationEntryJSON `json:"revoked,omitempty"`
	RevokedJTI []string                       `json:"revoked_jti,omitempty"`
}

type revocationEntryJSON struct {
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}

// RevocationRepository は失効リストファイルの読み書きを提供する。
type RevocationRepository struct {
	path string
}

// NewRevocationRepository は新しいRevocationRepositoryを生成する。
func NewRevocationRepository(path string) *RevocationRepository {
	return &RevocationRepository{path: path}
}

// Load は失効リストを読み込む。
// ファイルが存在しない場合は空リスト（エラーではない）。
// 存在するが構造的に読めない場合はdomain.ErrRevocationLoadに包んで返す。
func (r *RevocationRepository) Load(ctx context.Context) (*domain.RevocationList, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.EmptyRevocationList(), nil
		}
		slog.ErrorContext(ctx, "failed to read revocation file",
			"operation", "load_revocations",
			"path", r.path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrRevocationLoad, r.path, err)
	}

	var file revocationFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.ErrorContext(ctx, "revocation file is corrupt",
			"operation", "load_revocations",
			"path", r.path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrRevocationLoad, r.path, err)
	}

	entries := make(map[string]domain.RevocationEntry, len(file.Revoked)+len(file.RevokedJTI))
	for id, e := range file.Revoked {
		entries[id] = domain.RevocationEntry{
			TokenID:   id,
			Reason:    e.Reason,
			RevokedAt: e.RevokedAt,
		}
	}
	for _, id := range file.RevokedJTI {
		if _, ok := entries[id]; !ok {
			entries[id] = domain.RevocationEntry{TokenID: id, Reason: "unspecified"}
		}
	}
	return domain.NewRevocationList(entries), nil
}

// Save は失効リストをマッピング形式で書き出す。
func (r *RevocationRepository) Save(ctx context.Context, entries map[string]domain.RevocationEntry) error {
	file := revocationFile{
		Revoked: make(map[string]revocationEntryJSON, len(entries)),
	}
	for id, e := range entries {
		file.Revoked[id] = revocationEntryJSON{
			Reason:    e.Reason,
			RevokedAt: e.RevokedAt,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding revocation list: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0o644); err != nil {
		slog.ErrorContext(ctx, "failed to write revocation file",
			"operation", "save_revocations",
			"path", r.path,
			"error", err,
		)
		return fmt.Errorf("writing %s: %w", r.path, err)
	}
	return nil
}
