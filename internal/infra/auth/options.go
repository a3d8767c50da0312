package auth

import (
	"time"

	"github.com/xela07ax/webapi-auth-demo/internal/infra"
	"go.uber.org/zap"
)

// Option настраивает Issuer и Validator.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	now     func() time.Time
	metrics *infra.Metrics
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock подменяет источник времени (тесты, детерминированная выдача).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithMetrics(m *infra.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = infra.NewMetrics(nil)
	}
	return o
}
