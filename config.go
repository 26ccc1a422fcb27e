package eventrouter

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig,
// e.g. EVENTROUTER_LOG_LEVEL.
const EnvPrefix = "EVENTROUTER"

// Config is the file and environment configuration of a Router.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// DefaultConfig returns the configuration used when nothing is set:
// logging and metrics off.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			FilePath:   "eventrouter.log",
			MaxBytes:   DefaultMaxBytes,
			MaxBackups: DefaultMaxBackups,
			Level:      DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Namespace: "eventrouter",
		},
	}
}

// LoadConfig reads the configuration file at path, if path is not empty,
// and applies EVENTROUTER_* environment overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("log.enabled", def.Log.Enabled)
	v.SetDefault("log.file_path", def.Log.FilePath)
	v.SetDefault("log.max_bytes", def.Log.MaxBytes)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.namespace", def.Metrics.Namespace)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Options converts the configuration into router options. When metrics are
// enabled they are registered with reg, or with the default registerer if
// reg is nil.
func (c *Config) Options(reg prometheus.Registerer) ([]Option, error) {
	opts := []Option{WithLogConfig(&c.Log)}

	if c.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m := NewMetrics(c.Metrics.Namespace)
		if err := m.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, WithMetrics(m))
	}

	return opts, nil
}
