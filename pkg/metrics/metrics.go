// Package metrics 提供 Prometheus 指标采集功能
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "edu_ai"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)

	// 推理调用指标
	InferenceAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "attempts_total",
			Help:      "Total number of inference attempts by outcome class",
		},
		[]string{"model", "class"}, // class: ok/timeout/auth/rejected/rate_limited/unavailable/canceled
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "send_duration_seconds",
			Help:      "Inference send duration including retries and backoff",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	InferenceInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "in_flight",
			Help:      "Current number of inference requests holding a pool slot",
		},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "tokens_used_total",
			Help:      "Total tokens used by task kind",
		},
		[]string{"task_kind"},
	)

	// 校验指标
	RecordsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "records_total",
			Help:      "Total number of candidate records by validation result",
		},
		[]string{"task_kind", "result"}, // result: accepted/rejected
	)

	QuestionShortfall = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "question_shortfall",
			Help:      "Number of questions missing after the shortfall loop",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"question_type"},
	)

	// 交互结果指标
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "interactions_total",
			Help:      "Total number of orchestrated interactions by task kind and outcome",
		},
		[]string{"task_kind", "outcome"}, // outcome: done/partial/failed/rejected
	)

	UsageWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "write_failures_total",
			Help:      "Total number of interaction record writes that failed",
		},
		[]string{"sink"}, // sink: postgres/stream
	)
)
