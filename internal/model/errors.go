// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeInvalidRole          = "INVALID_ROLE"
	ErrCodeInvalidPrice         = "INVALID_PRICE"
	ErrCodePaymentProcessor     = "PAYMENT_PROCESSOR_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidImageURL      = "INVALID_IMAGE_URL"
	ErrCodeMalformedRequestBody = "MALFORMED_REQUEST_BODY"
	ErrCodeDuplicateSelection   = "DUPLICATE_SELECTION"
	ErrCodeAlreadyEnrolled      = "ALREADY_ENROLLED"
	ErrCodeClassNotFound        = "CLASS_NOT_FOUND"
)

// NewUnauthorizedError はトークン未指定・不正・期限切れ時のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "unauthorized access",
		Category: "auth",
		Action:   "サインインし直してトークンを再取得してください。",
	}
}

// NewForbiddenError は認証済みだがロールまたは本人確認が一致しない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "forbidden access",
		Category: "auth",
		Action:   "この操作に必要な権限があるアカウントでサインインしてください。",
	}
}

// NewValidationError はリクエストボディの検証失敗エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewMalformedBodyError はJSONとして解釈できないリクエストボディのエラーを生成する。
func NewMalformedBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeMalformedRequestBody,
		Message:  "リクエストボディを解析できません。",
		Category: "validation",
		Action:   "JSON形式のリクエストボディを送信してください。",
	}
}

// NewInvalidIDError は文字列から識別子を構築できない場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("無効なIDです: %s", id),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidRoleError は昇格先として許可されないロールのエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには admin または instructor を指定してください。",
	}
}

// NewInvalidPriceError は支払い金額として扱えない価格のエラーを生成する。
func NewInvalidPriceError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPrice,
		Message:  "価格は0より大きい値を指定してください。",
		Category: "payment",
		Action:   "講座の価格を確認してください。",
	}
}

// NewInvalidImageURLError は講座画像URLが許可されない場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "https:// で始まる公開URLを指定してください。",
	}
}

// NewPaymentProcessorError は決済事業者の呼び出し失敗エラーを生成する。
// 原因はログにのみ記録し、利用者には固定メッセージを返す。
func NewPaymentProcessorError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentProcessor,
		Message:  "決済サービスの呼び出しに失敗しました。",
		Category: "payment",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDuplicateSelectionError は同じ講座が既にカートにある場合のエラーを生成する。
func NewDuplicateSelectionError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSelection,
		Message:  "この講座は既にカートに追加されています。",
		Category: "cart",
		Action:   "カートの内容を確認してください。",
	}
}

// NewAlreadyEnrolledError は支払い済みの講座をカートに追加しようとした場合のエラーを生成する。
func NewAlreadyEnrolledError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyEnrolled,
		Message:  "この講座は既に受講登録済みです。",
		Category: "cart",
		Action:   "支払い履歴を確認してください。",
	}
}

// NewClassNotFoundError は指定IDの講座が存在しない場合のエラーを生成する。
func NewClassNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeClassNotFound,
		Message:  "講座が見つかりません。",
		Category: "cart",
		Action:   "講座一覧を再読み込みしてください。",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
