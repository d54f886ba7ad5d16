// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// validate はリクエストスキーマの検証に使う共有インスタンス（スレッドセーフ）。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーメッセージにはGoのフィールド名ではなくJSONのキー名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON はvをJSONとして書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleServiceError はサービス層から返されたエラーを統一エラーフォーマットで書き込む。
// APIError以外は原因をログに記録し、固定メッセージの500を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeRequest はJSONボディをdstにデコードし、validateタグで検証する。
// JSONとして解釈できない場合はMALFORMED_REQUEST_BODY、
// 検証に失敗した場合はVALIDATION_FAILEDを返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError("request body is required")
		}
		return model.NewMalformedBodyError()
	}
	if err := validate.Struct(dst); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError はvalidatorのエラーを最初の違反項目を示すAPIErrorに変換する。
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return model.NewValidationError(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return model.NewValidationError(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "uuid":
		return model.NewValidationError(fmt.Sprintf("%s must be a valid id", fe.Field()))
	case "gt", "gte", "lte", "max":
		return model.NewValidationError(fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	default:
		return model.NewValidationError(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
