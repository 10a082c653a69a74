// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// バインド試行結果のラベル値
const (
	BindResultSuccess    = "success"
	BindResultAddrInUse  = "addr_in_use"
	BindResultOtherError = "error"
)

// Collector はPrometheusメトリクスを収集する実装。
// auth.Recorder、ride.Recorder、middleware.HTTPRecorder、server.BindRecorderを満たす。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	usersRegistered prometheus.Counter
	loginFailures   prometheus.Counter
	ridesCreated    prometheus.Counter
	bindAttempts    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickride_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quickride_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickride_users_registered_total",
			Help: "登録されたユーザーの合計数",
		}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickride_login_failures_total",
			Help: "認証に失敗したログインの合計数",
		}),
		ridesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickride_rides_created_total",
			Help: "作成された配車リクエストの合計数",
		}),
		bindAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickride_bind_attempts_total",
			Help: "結果別のポートバインド試行回数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.usersRegistered,
		c.loginFailures,
		c.ridesCreated,
		c.bindAttempts,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストのステータスコードと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered() {
	c.usersRegistered.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailures.Inc()
}

// RecordRideCreated は配車リクエスト作成を記録する。
func (c *Collector) RecordRideCreated() {
	c.ridesCreated.Inc()
}

// RecordBindAttempt はポートバインドの試行結果を記録する。
func (c *Collector) RecordBindAttempt(result string) {
	c.bindAttempts.WithLabelValues(result).Inc()
}

// SetupMetricsRoute は/metricsエンドポイントを提供するスクレイプ用のHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
