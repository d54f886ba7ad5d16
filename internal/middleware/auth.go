// Package middleware はHTTPミドルウェアとルート単位の通過条件（Gate）を提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/langschool/internal/auth"
	"github.com/hitoshi/langschool/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに検証済みクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// 認証失敗の理由
const (
	AuthFailureMissingToken = "missing_token"
	AuthFailureInvalidToken = "invalid_token"
	AuthFailureExpiredToken = "expired_token"
	AuthFailureRoleMismatch = "role_mismatch"
)

// TokenVerifier はトークン検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthFailureRecorder は認証・認可の失敗を記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// RequireToken はBearerトークンを検証するGateを返す。
// トークンが未指定・不正・期限切れの場合は401を返す。
// 成功した場合は検証済みクレームをリクエストコンテキストに格納する。
// recorderはnilでもよい。
func RequireToken(verifier TokenVerifier, recorder AuthFailureRecorder) Gate {
	return func(r *http.Request) (*http.Request, error) {
		token, ok := BearerToken(r)
		if !ok {
			recordAuthFailure(recorder, AuthFailureMissingToken)
			return nil, model.NewUnauthorizedError()
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			reason := AuthFailureInvalidToken
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = AuthFailureExpiredToken
			}
			recordAuthFailure(recorder, reason)
			slog.Debug("token verification failed",
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
			return nil, model.NewUnauthorizedError()
		}

		setCallerEmail(r.Context(), claims.Email)
		return r.WithContext(ContextWithClaims(r.Context(), claims)), nil
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// ContextWithClaims はクレームを格納したコンテキストを返す。
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext はコンテキストから検証済みクレームを取得する。
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

// EmailFromContext はコンテキストの検証済みクレームからemailを取得する。
// 未認証の場合は空文字列を返す。
func EmailFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Email
	}
	return ""
}

func recordAuthFailure(recorder AuthFailureRecorder, reason string) {
	if recorder != nil {
		recorder.RecordAuthFailure(reason)
	}
}
