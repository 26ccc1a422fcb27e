package eventrouter

import "github.com/sirupsen/logrus"

// Option configures a Router.
type Option func(*routerConfig)

type routerConfig struct {
	logger    *logrus.Logger
	logConfig *LogConfig
	metrics   *Metrics
}

// WithLogger sets the logger used by the router. It takes precedence over
// WithLogConfig.
func WithLogger(l *logrus.Logger) Option {
	return func(c *routerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLogConfig makes the router log to a rotating file. A nil or disabled
// config leaves logging off.
func WithLogConfig(cfg *LogConfig) Option {
	return func(c *routerConfig) {
		if cfg != nil && cfg.Enabled {
			c.logConfig = cfg
		}
	}
}

// WithMetrics records router activity into m.
func WithMetrics(m *Metrics) Option {
	return func(c *routerConfig) {
		c.metrics = m
	}
}
