package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/langschool/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// errorは常にtrueで、原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Error    bool   `json:"error"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:    true,
		Message:  apiErr.Message,
		Code:     apiErr.Code,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// WriteError はerrを統一エラーフォーマットで書き込む。
// APIErrorの場合はコードに対応するステータスを使い、それ以外は原因をログに記録して500を返す。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		var ra interface{ RetryAfterSeconds() int }
		if errors.As(err, &ra) {
			w.Header().Set("Retry-After", strconv.Itoa(ra.RetryAfterSeconds()))
		}
		WriteErrorResponse(w, HTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	WriteInternalServerError(w)
}

// HTTPStatus はAPIErrorのコードをHTTPステータスコードに変換する。
func HTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeValidation,
		model.ErrCodeInvalidID,
		model.ErrCodeInvalidRole,
		model.ErrCodeInvalidPrice,
		model.ErrCodeInvalidImageURL,
		model.ErrCodeMalformedRequestBody:
		return http.StatusBadRequest
	case model.ErrCodeClassNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateSelection, model.ErrCodeAlreadyEnrolled:
		return http.StatusConflict
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case model.ErrCodePaymentProcessor:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
