// Package payment は支払いインテントの作成、支払いの確定、支払い履歴を提供する。
//
// 支払いは2段階で行う。
//  1. CreateIntent: 価格を最小通貨単位に変換し、決済事業者でインテントを作成する。
//  2. Finalize: 支払い記録の作成と該当カート内容の削除を同一トランザクションで行う。
//
// 2段階の間にはトランザクションを張らない。クライアントが決済を完了した後にFinalizeを呼ぶ。
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/langschool/internal/metrics"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/repository"
)

// 決済事業者呼び出しの失敗理由（メトリクスのラベル）
const (
	FailureTimeout   = "timeout"
	FailureProcessor = "processor_error"
)

// DefaultTimeout は決済事業者呼び出しの既定タイムアウト。
const DefaultTimeout = 10 * time.Second

var minorUnitsPerMajor = decimal.NewFromInt(100)

// RoleFinder は支払い履歴の管理者判定に使うユーザー検索インターフェース。
type RoleFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Config はServiceの設定を保持する。
type Config struct {
	Currency string
	Timeout  time.Duration
}

// FinalizeInput は支払い確定の入力。
// Emailは省略可能で、指定された場合は呼び出し元と一致しなければならない。
type FinalizeInput struct {
	Email         string
	ClassID       string
	Amount        float64
	TransactionID string
}

// Service は支払いに関するビジネスロジックを提供する。
type Service struct {
	processor   Processor
	paymentRepo repository.PaymentRepository
	users       RoleFinder
	metrics     metrics.MetricsCollector
	config      Config
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	processor Processor,
	paymentRepo repository.PaymentRepository,
	users RoleFinder,
	collector metrics.MetricsCollector,
	config Config,
) *Service {
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Service{
		processor:   processor,
		paymentRepo: paymentRepo,
		users:       users,
		metrics:     collector,
		config:      config,
		now:         time.Now,
	}
}

// ToMinorUnits は価格を最小通貨単位の整数に変換する。
// 10進数で100倍し、端数は切り捨てる（49.99 → 4999、10.999 → 1099）。
// 価格がmodel.MaxPriceを超える場合や有限でない場合はok=falseを返す。
func ToMinorUnits(price float64) (amount int64, ok bool) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	d := decimal.NewFromFloat(price)
	if d.GreaterThan(model.MaxPrice) {
		return 0, false
	}
	return d.Mul(minorUnitsPerMajor).Truncate(0).IntPart(), true
}

// CreateIntent は価格に対応する支払いインテントを作成する。
// 価格が0以下またはmodel.MaxPriceを超える場合はINVALID_PRICEを返す。
// 決済事業者の呼び出しはConfig.Timeoutで打ち切り、失敗・タイムアウト時は再試行せず
// PAYMENT_PROCESSOR_ERRORを返す。原因はログにのみ記録する。
func (s *Service) CreateIntent(ctx context.Context, price float64) (*model.PaymentIntent, error) {
	amount, ok := ToMinorUnits(price)
	if !ok || amount <= 0 {
		return nil, model.NewInvalidPriceError()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	clientSecret, err := s.processor.CreatePaymentIntent(callCtx, IntentRequest{
		Amount:      amount,
		Currency:    s.config.Currency,
		MethodTypes: defaultMethodTypes,
	})
	latency := time.Since(start)
	if err != nil {
		reason := FailureProcessor
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = FailureTimeout
		}
		s.metrics.RecordIntentFailed(reason, latency)
		slog.Error("支払いインテントの作成に失敗しました",
			slog.String("reason", reason),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPaymentProcessorError()
	}

	s.metrics.RecordIntentCreated(latency)
	return &model.PaymentIntent{
		Amount:       amount,
		Currency:     s.config.Currency,
		ClientSecret: clientSecret,
	}, nil
}

// Finalize は支払い記録を作成し、呼び出し元のカートから該当講座を削除する。
// 両操作は同一トランザクションで行う。支払い記録のemailは常に呼び出し元とする。
// 同じ内容で繰り返し呼ばれた場合は支払い記録を重ねて作成し、削除件数は0になる。
func (s *Service) Finalize(ctx context.Context, callerEmail string, in FinalizeInput) (model.FinalizeResult, error) {
	if callerEmail == "" {
		return model.FinalizeResult{}, model.NewUnauthorizedError()
	}
	if in.Email != "" && in.Email != callerEmail {
		return model.FinalizeResult{}, model.NewForbiddenError()
	}
	if _, err := uuid.Parse(in.ClassID); err != nil {
		return model.FinalizeResult{}, model.NewInvalidIDError(in.ClassID)
	}
	transactionID := strings.TrimSpace(in.TransactionID)
	if transactionID == "" {
		return model.FinalizeResult{}, model.NewValidationError("transactionId is required")
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return model.FinalizeResult{}, model.NewValidationError("price is invalid")
	}
	amount := decimal.NewFromFloat(in.Amount).Round(2)
	if amount.IsNegative() {
		return model.FinalizeResult{}, model.NewValidationError("price must be greater than or equal to 0")
	}
	if amount.GreaterThan(model.MaxPrice) {
		return model.FinalizeResult{}, model.NewValidationError("price is too large")
	}

	p := &model.Payment{
		ID:                   uuid.NewString(),
		Email:                callerEmail,
		ClassID:              in.ClassID,
		Amount:               amount.InexactFloat64(),
		TransactionReference: transactionID,
		CreatedAt:            s.now().UTC(),
	}

	result, err := s.paymentRepo.Finalize(ctx, p)
	if err != nil {
		return model.FinalizeResult{}, fmt.Errorf("支払いの確定に失敗しました: %w", err)
	}

	s.metrics.RecordPaymentFinalized(p.Amount)
	slog.Info("支払いを確定しました",
		slog.String("payment_id", p.ID),
		slog.String("class_id", p.ClassID),
		slog.String("transaction_id", p.TransactionReference),
		slog.Int64("selections_deleted", result.DeleteResult.DeletedCount),
	)

	return result, nil
}

// History は指定ユーザーの支払い履歴を新しい順に返す。
// 本人または管理者のみ参照できる。それ以外はFORBIDDENを返す。
func (s *Service) History(ctx context.Context, callerEmail, email string) ([]*model.Payment, error) {
	if callerEmail == "" {
		return nil, model.NewUnauthorizedError()
	}
	if callerEmail != email {
		caller, err := s.users.FindByEmail(ctx, callerEmail)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if !caller.HasRole(model.RoleAdmin) {
			return nil, model.NewForbiddenError()
		}
	}

	payments, err := s.paymentRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("支払い履歴の取得に失敗しました: %w", err)
	}
	return payments, nil
}
