package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 操作名。メトリクスのラベルとログに使います。
const (
	opEdit  = "edit_image"
	opImage = "generate_image"
	opVideo = "generate_video"
)

// Metrics は生成処理の計測値を Prometheus に公開します。
// nil のまま使っても何もしません。
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pollsTotal      *prometheus.CounterVec
}

// NewMetrics は reg にメトリクスを登録します。
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Total number of generation requests",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Generation duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
		pollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "video_poll_attempts_total",
				Help:      "Total number of video operation status queries",
			},
			[]string{"outcome"},
		),
	}
}

// ObservePoll は動画オペレーション照会の結果を数えます。
func (m *Metrics) ObservePoll(outcome string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) record(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcomeOf(err)).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case isInvalidCredential(err):
		return "invalid_credential"
	default:
		return "error"
	}
}
