package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"license-entitlement-service/internal/domain"
)

// IssuedLicenseModel はgorm用のモデル定義。
type IssuedLicenseModel struct {
	TokenID      string     `gorm:"column:token_id;type:char(36);primaryKey"`
	Customer     string     `gorm:"type:varchar(255);not null;index:idx_customer"`
	Plan         string     `gorm:"type:varchar(16);not null"`
	IssuedAt     time.Time  `gorm:"type:datetime(6);not null"`
	ExpiresAt    *time.Time `gorm:"type:datetime(6)"`
	Status       string     `gorm:"type:varchar(16);not null;default:'active';index:idx_status"`
	RevokeReason string     `gorm:"type:varchar(255)"`
	RevokedAt    *time.Time `gorm:"type:datetime(6)"`
	CreatedAt    time.Time  `gorm:"type:datetime(6);not null;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (IssuedLicenseModel) TableName() string {
	return "issued_licenses"
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *IssuedLicenseModel) toDomain() *domain.IssuedLicense {
	return &domain.IssuedLicense{
		TokenID:      m.TokenID,
		Customer:     m.Customer,
		Plan:         domain.Tier(m.Plan),
		IssuedAt:     m.IssuedAt,
		ExpiresAt:    m.ExpiresAt,
		Status:       domain.LicenseStatus(m.Status),
		RevokeReason: m.RevokeReason,
		RevokedAt:    m.RevokedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// LicenseRepository は発行台帳のデータアクセスを提供する。
type LicenseRepository struct {
	db *gorm.DB
}

// NewLicenseRepository は新しいLicenseRepositoryを生成する。
func NewLicenseRepository(db *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// Create は発行済みライセンスを台帳に保存する。
func (r *LicenseRepository) Create(ctx context.Context, license *domain.IssuedLicense) error {
	model := &IssuedLicenseModel{
		TokenID:   license.TokenID,
		Customer:  license.Customer,
		Plan:      string(license.Plan),
		IssuedAt:  license.IssuedAt,
		ExpiresAt: license.ExpiresAt,
		Status:    string(license.Status),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create issued license",
			"operation", "create",
			"jti", license.TokenID,
			"error", err,
		)
		return err
	}
	license.CreatedAt = model.CreatedAt
	license.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByTokenID は指定されたトークンIDのライセンスを取得する。
func (r *LicenseRepository) FindByTokenID(ctx context.Context, tokenID string) (*domain.IssuedLicense, error) {
	var model IssuedLicenseModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find license",
			"operation", "find_by_token_id",
			"jti", tokenID,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は台帳の全ライセンスを発行日時順に取得する。
func (r *LicenseRepository) FindAll(ctx context.Context) ([]*domain.IssuedLicense, error) {
	var models []IssuedLicenseModel
	err := r.db.WithContext(ctx).
		Order("issued_at ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all licenses",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}

	licenses := make([]*domain.IssuedLicense, len(models))
	for i, m := range models {
		licenses[i] = m.toDomain()
	}
	return licenses, nil
}

// FindRevoked は失効済みライセンスを取得する。
func (r *LicenseRepository) FindRevoked(ctx context.Context) ([]*domain.IssuedLicense, error) {
	var models []IssuedLicenseModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.LicenseStatusRevoked)).
		Order("revoked_at ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find revoked licenses",
			"operation", "find_revoked",
			"error", err,
		)
		return nil, err
	}

	licenses := make([]*domain.IssuedLicense, len(models))
	for i, m := range models {
		licenses[i] = m.toDomain()
	}
	return licenses, nil
}

// MarkRevoked は指定されたトークンIDのライセンスを失効済みに更新する。
func (r *LicenseRepository) MarkRevoked(ctx context.Context, tokenID string, reason string, revokedAt time.Time) error {
	var model IssuedLicenseModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrLicenseNotFound
		}
		slog.ErrorContext(ctx, "failed to find license for revocation",
			"operation", "mark_revoked",
			"jti", tokenID,
			"error", err,
		)
		return err
	}
	if model.Status == string(domain.LicenseStatusRevoked) {
		return domain.ErrLicenseAlreadyRevoked
	}

	err = r.db.WithContext(ctx).
		Model(&IssuedLicenseModel{}).
		Where("token_id = ?", tokenID).
		Updates(map[string]any{
			"status":        string(domain.LicenseStatusRevoked),
			"revoke_reason": reason,
			"revoked_at":    revokedAt,
		}).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark license revoked",
			"operation", "mark_revoked",
			"jti", tokenID,
			"error", err,
		)
		return err
	}
	return nil
}
