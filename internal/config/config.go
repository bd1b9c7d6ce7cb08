// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/shop-dedupe/internal/model"
	"github.com/sells-group/shop-dedupe/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Detect DetectConfig `yaml:"detect" mapstructure:"detect"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DetectConfig holds the detection thresholds.
type DetectConfig struct {
	ThresholdKm   float64 `yaml:"threshold_km" mapstructure:"threshold_km"`
	MinNameLength int     `yaml:"min_name_length" mapstructure:"min_name_length"`
	Mode          string  `yaml:"mode" mapstructure:"mode"`
}

// FetchConfig configures remote input retrieval.
type FetchConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	TempDir        string  `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ReportConfig configures output rendering.
type ReportConfig struct {
	Preview int `yaml:"preview" mapstructure:"preview"`
}

// StoreConfig configures the optional run-history database.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	Path        string           `yaml:"path" mapstructure:"path"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP detection server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEDUPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("detect.threshold_km", 0.10)
	v.SetDefault("detect.min_name_length", 3)
	v.SetDefault("detect.mode", "all")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.requests_per_sec", 2.0)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.temp_dir", "")
	v.SetDefault("report.preview", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "dedupe.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// OpenStore opens the run-history store selected by the configuration.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	default:
		return nil, eris.Errorf("config: unknown store driver %q", cfg.Driver)
	}
}

// Validate checks the configuration for the given command mode and
// reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Detect.ThresholdKm <= 0 {
		problems = append(problems, "detect.threshold_km must be > 0")
	}
	if c.Detect.MinNameLength < 1 {
		problems = append(problems, "detect.min_name_length must be >= 1")
	}
	if _, err := model.ParseMode(c.Detect.Mode); err != nil {
		problems = append(problems, "detect.mode is not a valid mode")
	}
	if c.Fetch.RequestsPerSec <= 0 {
		problems = append(problems, "fetch.requests_per_sec must be > 0")
	}
	if c.Fetch.Retries < 0 {
		problems = append(problems, "fetch.retries must be >= 0")
	}

	switch mode {
	case "detect", "runs":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
