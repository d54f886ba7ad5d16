package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/repository"
)

// subjectParam は/users/admin/と/users/instructor/の後続セグメント。
// GETではemail、PATCHではユーザーIDを表す。
const subjectParam = "subject"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver
	CORSAllowedOrigin string
	HSTSEnabled       bool
	RateLimiter       *middleware.RateLimiter

	// アクセス制御
	TokenVerifier middleware.TokenVerifier
	RoleFinder    middleware.RoleFinder
	AuthRecorder  middleware.AuthFailureRecorder

	// 運用
	HealthChecker  repository.HealthChecker
	MetricsHandler http.Handler

	// ドメイン
	TokenIssuer    TokenIssuer
	UserService    UserServiceInterface
	CatalogService CatalogServiceInterface
	CartService    CartServiceInterface
	PaymentService PaymentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 全ルート共通のミドルウェアの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS
//
// ルートごとの通過条件はGuardで順に評価する:
//
//	公開:       RateLimit(General)
//	認証:       RequireToken → RateLimit(General)
//	ロール:     RequireToken → RateLimit(General) → RequireRole
//	決済:       RequireToken → RateLimit(General) → RateLimit(Payment)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusObserver))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTSEnabled))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	requireToken := middleware.RequireToken(deps.TokenVerifier, deps.AuthRecorder)
	general := deps.RateLimiter.General()

	public := middleware.Guard(general)
	authed := middleware.Guard(requireToken, general)
	adminOnly := middleware.Guard(requireToken, general,
		middleware.RequireRole(deps.RoleFinder, model.RoleAdmin, deps.AuthRecorder))
	instructorOnly := middleware.Guard(requireToken, general,
		middleware.RequireRole(deps.RoleFinder, model.RoleInstructor, deps.AuthRecorder))
	paymentGuard := middleware.Guard(requireToken, general, deps.RateLimiter.Payment())

	healthHandler := NewHealthHandler(deps.HealthChecker)
	authHandler := NewAuthHandler(deps.TokenIssuer)
	userHandler := NewUserHandler(deps.UserService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	cartHandler := NewCartHandler(deps.CartService)
	paymentHandler := NewPaymentHandler(deps.PaymentService)

	// --- 運用 ---
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- トークン発行 ---
	r.With(public).Post("/jwt", authHandler.IssueToken)

	// --- ユーザー・ロール ---
	r.Route("/users", func(r chi.Router) {
		r.With(adminOnly).Get("/", userHandler.ListUsers)
		r.With(public).Post("/", userHandler.UpsertUser)

		r.With(authed).Get("/admin/{"+subjectParam+"}", userHandler.CheckAdmin)
		r.With(adminOnly).Patch("/admin/{"+subjectParam+"}", userHandler.PromoteToAdmin)

		r.With(authed).Get("/instructor/{"+subjectParam+"}", userHandler.CheckInstructor)
		r.With(adminOnly).Patch("/instructor/{"+subjectParam+"}", userHandler.PromoteToInstructor)
	})

	// --- 講師・講座 ---
	r.With(public).Get("/teachers", catalogHandler.ListTeachers)
	r.Route("/classes", func(r chi.Router) {
		r.With(public).Get("/", catalogHandler.ListClasses)
		r.With(instructorOnly).Post("/", catalogHandler.CreateClass)
	})
	r.With(authed).Get("/myclass", catalogHandler.MyClasses)

	// --- カート ---
	r.Route("/selects", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", cartHandler.ListSelections)
		r.Post("/", cartHandler.AddSelection)
		r.Delete("/{id}", cartHandler.RemoveSelection)
	})

	// --- 支払い ---
	r.With(paymentGuard).Post("/create-payment-intent", paymentHandler.CreateIntent)
	r.With(paymentGuard).Post("/payments", paymentHandler.Finalize)
	r.With(authed).Get("/payments/{email}", paymentHandler.History)

	return r
}
