package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: время обработки HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Логины по исходу: accepted, missing_credentials, invalid_credentials
	LoginAttempts *prometheus.CounterVec

	TokensIssued prometheus.Counter

	// Проверки токенов: valid / invalid (причину не раскрываем даже в метриках)
	TokenValidations *prometheus.CounterVec

	// Audit: события, сброшенные при переполнении буфера (backpressure)
	AuditDropped prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authd_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route", "method", "status"}),

		LoginAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "authd_login_attempts_total",
			Help: "Total number of login attempts by outcome.",
		}, []string{"outcome"}),

		TokensIssued: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "authd_tokens_issued_total",
			Help: "Total number of session tokens issued.",
		}),

		TokenValidations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "authd_token_validations_total",
			Help: "Total number of token validations by result.",
		}, []string{"result"}),

		AuditDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "authd_audit_dropped_total",
			Help: "Audit events dropped because the buffer was full or closed.",
		}),
	}
}
