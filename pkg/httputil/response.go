// Package httputil はHTTPレスポンス生成のユーティリティを提供する。
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse はエラーレスポンスの形式。
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON はJSONレスポンスを返す。
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// ヘッダー送信後はステータスを変更できないため、エンコード失敗は無視する
	_ = json.NewEncoder(w).Encode(data)
}

// Error はエラーレスポンスを返す。
// 検証の失敗はエラーではなく判定結果として返すため、ここを通るのは
// リクエスト自体が不正な場合に限られる。
func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
