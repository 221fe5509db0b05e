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
// twitterクライアントやサービス層から利用する。
type MetricsCollector interface {
	RecordLookupSuccess()
	RecordLookupFailure(reason string)
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
	RecordBookmarkCreated()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	lookupSuccess   prometheus.Counter
	lookupFail      *prometheus.CounterVec
	upstreamStatus  *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	bookmarkCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lookupSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetman_lookup_success_total",
			Help: "ツイートルックアップ成功の合計数",
		}),
		lookupFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetman_lookup_fail_total",
			Help: "ツイートルックアップ失敗の合計数（原因別）",
		}, []string{"reason"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetman_upstream_status_total",
			Help: "Twitter APIのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tweetman_upstream_latency_seconds",
			Help:    "Twitter API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		bookmarkCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetman_bookmark_created_total",
			Help: "登録されたブックマークの合計数",
		}),
	}

	reg.MustRegister(
		c.lookupSuccess,
		c.lookupFail,
		c.upstreamStatus,
		c.upstreamLatency,
		c.bookmarkCreated,
	)

	return c
}

// RecordLookupSuccess はルックアップ成功を記録する。
func (c *Collector) RecordLookupSuccess() {
	c.lookupSuccess.Inc()
}

// RecordLookupFailure はルックアップ失敗を原因別に記録する。
// reasonには not_found、upstream、invalid_url のいずれかを渡す。
func (c *Collector) RecordLookupFailure(reason string) {
	c.lookupFail.WithLabelValues(reason).Inc()
}

// RecordUpstreamStatus はTwitter APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency はTwitter API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordBookmarkCreated はブックマーク登録を記録する。
func (c *Collector) RecordBookmarkCreated() {
	c.bookmarkCreated.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
