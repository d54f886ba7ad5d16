package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// defaultMethodTypes はインテント作成時に許可する支払い方法。
var defaultMethodTypes = []string{"card"}

// IntentRequest は決済事業者に送るインテント作成要求。
type IntentRequest struct {
	Amount      int64  // 最小通貨単位
	Currency    string // ISO 4217 小文字（例: usd）
	MethodTypes []string
}

// Processor は外部の決済事業者のインターフェース。
// 呼び出しはctxの期限に従い、失敗時に自動で再試行しない。
type Processor interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (clientSecret string, err error)
}

// StripeProcessor はStripeのPaymentIntents APIを利用するProcessor実装。
type StripeProcessor struct {
	api *client.API
}

// StripeConfig はStripeProcessorの設定を保持する。
type StripeConfig struct {
	SecretKey string
	// APIURL が空の場合はStripeの既定エンドポイントを使う。
	APIURL string
	// HTTPClient は送信先制限付きクライアントを渡す。nilの場合はhttp.DefaultClient相当。
	HTTPClient *http.Client
}

// NewStripeProcessor はStripeProcessorを生成する。
// SDK内部の自動リトライは無効化する。
func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	})

	return &StripeProcessor{api: api}
}

// CreatePaymentIntent はPaymentIntentを作成し、client secretを返す。
func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, req IntentRequest) (string, error) {
	methodTypes := req.MethodTypes
	if len(methodTypes) == 0 {
		methodTypes = defaultMethodTypes
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice(methodTypes),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var attrs []any
		if stripeErr, ok := err.(*stripe.Error); ok {
			attrs = append(attrs,
				slog.String("stripe_type", string(stripeErr.Type)),
				slog.String("stripe_code", string(stripeErr.Code)),
				slog.Int("http_status", stripeErr.HTTPStatusCode),
			)
		}
		slog.Debug("stripe payment intent request failed", attrs...)
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intent.ClientSecret, nil
}

// compile-time interface check
var _ Processor = (*StripeProcessor)(nil)
