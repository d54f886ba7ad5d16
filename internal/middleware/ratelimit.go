package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/langschool/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	PaymentRate     rate.Limit    // 決済系（インテント作成・支払い確定）のレート（req/sec）。10/60
	PaymentBurst    int           // 決済系のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// 1分あたりの既定リクエスト数（呼び出し元ごと）
const (
	defaultGeneralPerMinute = 120
	defaultPaymentPerMinute = 10
)

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min、決済系 10 req/min（いずれも呼び出し元ごと）。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(defaultGeneralPerMinute, defaultPaymentPerMinute)
}

// NewRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を生成する。
// 0以下の値は既定値に置き換える。
func NewRateLimiterConfig(generalPerMinute, paymentPerMinute int) RateLimiterConfig {
	if generalPerMinute <= 0 {
		generalPerMinute = defaultGeneralPerMinute
	}
	if paymentPerMinute <= 0 {
		paymentPerMinute = defaultPaymentPerMinute
	}
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		PaymentRate:     rate.Limit(float64(paymentPerMinute) / 60.0),
		PaymentBurst:    paymentPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// callerLimiter は呼び出し元ごとのレートリミッターとアクセス時刻を保持する。
type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet は呼び出し元キーごとのリミッター集合。
type limiterSet struct {
	kind  string
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*callerLimiter
}

func newLimiterSet(kind string, limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		kind:     kind,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*callerLimiter),
	}
}

// get は呼び出し元のリミッターを取得または作成する。
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cl, exists := s.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = &callerLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

func (s *limiterSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// evict は最終アクセスからttlを超えたエントリを削除する。
func (s *limiterSet) evict(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cl := range s.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(s.limiters, key)
		}
	}
}

// gate は呼び出し元ごとにレートを制限するGateを返す。
func (s *limiterSet) gate() Gate {
	return func(r *http.Request) (*http.Request, error) {
		key := CallerKey(r)
		if !s.get(key).Allow() {
			slog.Warn("rate limit exceeded",
				slog.String("caller", key),
				slog.String("limit_type", s.kind),
			)
			return nil, newRateLimitError(s.limit)
		}
		return r, nil
	}
}

// RateLimiter は呼び出し元ごとのレート制限を管理する。
// API全般のレート制限と決済系のレート制限の2種類を提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterSet
	payment *limiterSet

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		config:  config,
		general: newLimiterSet("general", config.GeneralRate, config.GeneralBurst),
		payment: newLimiterSet("payment", config.PaymentRate, config.PaymentBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// General はAPI全般のレート制限Gateを返す。
// 認証済みの場合はemail、未認証の場合はクライアントIPを呼び出し元キーとする。
func (rl *RateLimiter) General() Gate {
	return rl.general.gate()
}

// Payment は決済系エンドポイント専用のレート制限Gateを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) Payment() Gate {
	return rl.payment.gate()
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// PaymentLimiterCount は現在管理されている決済系リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) PaymentLimiterCount() int {
	return rl.payment.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.general.evict(now, ttl)
	rl.payment.evict(now, ttl)
}

// CallerKey はレート制限の呼び出し元キーを返す。
// 検証済みクレームがあれば"email:<email>"、なければ"ip:<address>"。
func CallerKey(r *http.Request) string {
	if email := EmailFromContext(r.Context()); email != "" {
		return "email:" + email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// rateLimitError はRetry-Afterの秒数を伴うレート制限エラー。
type rateLimitError struct {
	apiErr     *model.APIError
	retryAfter int
}

// newRateLimitError は1トークンが補充されるまでの推定秒数を伴うエラーを生成する。
func newRateLimitError(r rate.Limit) *rateLimitError {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	return &rateLimitError{
		apiErr: &model.APIError{
			Code:     model.ErrCodeRateLimitExceeded,
			Message:  "Too many requests. Please try again later.",
			Category: "system",
			Action:   fmt.Sprintf("%d秒ほど待ってから再度お試しください。", retryAfterSec),
		},
		retryAfter: retryAfterSec,
	}
}

func (e *rateLimitError) Error() string { return e.apiErr.Error() }

func (e *rateLimitError) Unwrap() error { return e.apiErr }

// RetryAfterSeconds はRetry-Afterヘッダーに設定する秒数を返す。
func (e *rateLimitError) RetryAfterSeconds() int { return e.retryAfter }
