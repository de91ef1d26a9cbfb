// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"license-entitlement-service/internal/middleware"
	"license-entitlement-service/internal/usecase"
	"license-entitlement-service/pkg/httputil"
)

// LicenseHandler はライセンス検証APIのHTTPハンドラを提供する。
type LicenseHandler struct {
	validator *usecase.LicenseValidator
	store     *usecase.SnapshotStore
}

// NewLicenseHandler は新しいLicenseHandlerを生成する。
func NewLicenseHandler(validator *usecase.LicenseValidator, store *usecase.SnapshotStore) *LicenseHandler {
	return &LicenseHandler{validator: validator, store: store}
}

// ValidateRequest は検証リクエストの形式。
type ValidateRequest struct {
	LicenseKey string `json:"license_key"`
}

// ReloadResponse はスナップショット更新レスポンスの形式。
type ReloadResponse struct {
	ReloadedAt  string `json:"reloaded_at"`
	Revocations int    `json:"revocations"`
}

// Validate はライセンス文字列を検証する。
// 検証の失敗はHTTPエラーではなく、常に整形済みの判定結果を200で返す。
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	result := h.validator.Validate(r.Context(), req.LicenseKey)
	middleware.WriteValidationLog(r.Context(), result)
	httputil.JSON(w, http.StatusOK, result)
}

// Reload は公開鍵と失効リストのスナップショットを読み直す。
// 置き換えはアトミックなスワップで行われ、進行中の検証には影響しない。
func (h *LicenseHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(r.Context()); err != nil {
		middleware.WriteAuditLog(r.Context(), "RELOAD_SNAPSHOT", "", "FAILED")
		httputil.Error(w, http.StatusInternalServerError, "RELOAD_FAILED", "failed to reload key or revocation list")
		return
	}

	snap := h.store.Current()
	middleware.WriteAuditLog(r.Context(), "RELOAD_SNAPSHOT", "", "SUCCESS")
	httputil.JSON(w, http.StatusOK, ReloadResponse{
		ReloadedAt:  snap.LoadedAt.Format(time.RFC3339),
		Revocations: snap.Revocations.Len(),
	})
}

// Health はヘルスチェックに応答する。
func (h *LicenseHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
