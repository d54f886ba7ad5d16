package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// callerContextKey はアクセスログ用に認証済みemailを受け渡す領域のキー。
var callerContextKey = contextKey("caller")

// caller はGateで判明した認証済みemailをアクセスログへ伝える。
// Gateは内側のハンドラで評価されるため、外側のログミドルウェアからはコンテキスト経由で参照できない。
type caller struct {
	email string
}

// setCallerEmail はログミドルウェアが用意した領域に認証済みemailを記録する。
func setCallerEmail(ctx context.Context, email string) {
	if c, ok := ctx.Value(callerContextKey).(*caller); ok {
		c.email = email
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// StatusObserver はレスポンスのステータスコードを受け取るインターフェース。
type StatusObserver interface {
	ObserveHTTPStatus(method string, status int)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、email（認証済みの場合）を含む。
// observerがnilでない場合はステータスコードも通知する。
func NewLoggingMiddleware(logger *slog.Logger, observer StatusObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			c := &caller{}
			r = r.WithContext(context.WithValue(r.Context(), callerContextKey, c))

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}
			if c.email != "" {
				args = append(args, slog.String("email", c.email))
			}

			// slogのログレベルをステータスコードに応じて変更
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)

			if observer != nil {
				observer.ObserveHTTPStatus(r.Method, rec.statusCode)
			}
		})
	}
}
