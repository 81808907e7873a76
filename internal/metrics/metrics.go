// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	moderations      *prometheus.CounterVec
	moderationDenied prometheus.Counter
	recipesDeleted   prometheus.Counter
	contentSubmitted *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		moderations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recepti_moderation_transitions_total",
			Help: "モデレーション状態遷移の合計数（種別・遷移先別）",
		}, []string{"kind", "status"}),
		moderationDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recepti_moderation_forbidden_total",
			Help: "権限不足で拒否されたモデレーション操作の合計数",
		}),
		recipesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recepti_recipes_deleted_total",
			Help: "削除されたレシピの合計数",
		}),
		contentSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recepti_content_submitted_total",
			Help: "投稿されたユーザーコンテンツの合計数（種別別）",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recepti_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.moderations,
		c.moderationDenied,
		c.recipesDeleted,
		c.contentSubmitted,
		c.httpStatus,
	)

	return c
}

// RecordModeration はモデレーション状態遷移の成功を記録する。
func (c *Collector) RecordModeration(kind string, status string) {
	c.moderations.WithLabelValues(kind, status).Inc()
}

// RecordModerationDenied は権限不足で拒否された操作を記録する。
func (c *Collector) RecordModerationDenied() {
	c.moderationDenied.Inc()
}

// RecordRecipeDeleted はレシピ削除を記録する。
func (c *Collector) RecordRecipeDeleted() {
	c.recipesDeleted.Inc()
}

// RecordContentSubmitted はユーザーコンテンツの投稿を記録する。
func (c *Collector) RecordContentSubmitted(kind string) {
	c.contentSubmitted.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// ルーターが/metricsパスにマウントする。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
