// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordIntentCreated(latency time.Duration)
	RecordIntentFailed(reason string, latency time.Duration)
	RecordPaymentFinalized(amount float64)
	RecordSelectionAdded()
	RecordSelectionRemoved(count int64)
	RecordAuthFailure(reason string)
	ObserveHTTPStatus(method string, statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	intentsCreated    prometheus.Counter
	intentsFailed     *prometheus.CounterVec
	intentLatency     prometheus.Histogram
	paymentsFinalized prometheus.Counter
	paymentAmount     prometheus.Counter
	selectionsAdded   prometheus.Counter
	selectionsRemoved prometheus.Counter
	authFailures      *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		intentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langschool_payment_intents_created_total",
			Help: "作成に成功した支払いインテントの合計数",
		}),
		intentsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langschool_payment_intents_failed_total",
			Help: "作成に失敗した支払いインテントの理由別の合計数",
		}, []string{"reason"}),
		intentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "langschool_payment_intent_latency_seconds",
			Help:    "決済事業者へのインテント作成呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		paymentsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langschool_payments_finalized_total",
			Help: "確定した支払いの合計数",
		}),
		paymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langschool_payment_amount_total",
			Help: "確定した支払い金額の合計",
		}),
		selectionsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langschool_selections_added_total",
			Help: "カートに追加された講座の合計数",
		}),
		selectionsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langschool_selections_removed_total",
			Help: "カートから削除された講座の合計数",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langschool_auth_failures_total",
			Help: "認証・認可に失敗したリクエストの理由別の合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langschool_http_responses_total",
			Help: "メソッドとHTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.intentsCreated,
		c.intentsFailed,
		c.intentLatency,
		c.paymentsFinalized,
		c.paymentAmount,
		c.selectionsAdded,
		c.selectionsRemoved,
		c.authFailures,
		c.httpStatus,
	)

	return c
}

// RecordIntentCreated はインテント作成成功を記録する。
func (c *Collector) RecordIntentCreated(latency time.Duration) {
	c.intentsCreated.Inc()
	c.intentLatency.Observe(latency.Seconds())
}

// RecordIntentFailed はインテント作成失敗を記録する。
func (c *Collector) RecordIntentFailed(reason string, latency time.Duration) {
	c.intentsFailed.WithLabelValues(reason).Inc()
	c.intentLatency.Observe(latency.Seconds())
}

// RecordPaymentFinalized は支払い確定を記録する。
func (c *Collector) RecordPaymentFinalized(amount float64) {
	c.paymentsFinalized.Inc()
	if amount > 0 {
		c.paymentAmount.Add(amount)
	}
}

// RecordSelectionAdded はカート追加を記録する。
func (c *Collector) RecordSelectionAdded() {
	c.selectionsAdded.Inc()
}

// RecordSelectionRemoved はカートからの削除件数を記録する。
func (c *Collector) RecordSelectionRemoved(count int64) {
	if count > 0 {
		c.selectionsRemoved.Add(float64(count))
	}
}

// RecordAuthFailure は認証・認可の失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// ObserveHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) ObserveHTTPStatus(method string, statusCode int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
