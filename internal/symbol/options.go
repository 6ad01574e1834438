package symbol

import (
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	metrics   *Metrics
	normalize bool
	form      norm.Form
}

func defaultOptions() options {
	return options{logger: zap.NewNop()}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}
}

// WithMetrics records registry activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithNormalization rewrites every name into the given Unicode normal form
// before it is interned or imported. Names that differ only in composition
// then share one id.
func WithNormalization(form norm.Form) Option {
	return func(o *options) {
		o.normalize = true
		o.form = form
	}
}
