package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Eval      EvalConfig      `yaml:"eval" mapstructure:"eval"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds reasoning-service settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
}

// CorpusConfig configures the Q&A dataset.
type CorpusConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// MinScore suppresses matches below this similarity. Zero keeps even
	// near-zero matches, which mirrors the historical behavior.
	MinScore float64 `yaml:"min_score" mapstructure:"min_score"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP chat server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// EvalConfig configures the evaluation harness.
type EvalConfig struct {
	Sample      int     `yaml:"sample" mapstructure:"sample"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	Tolerance   float64 `yaml:"tolerance" mapstructure:"tolerance"`
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
	v.SetEnvPrefix("FINCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default empty so env-only deployments still
	// surface them through Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.temperature", 0.1)
	v.SetDefault("anthropic.rps", 2.0)
	v.SetDefault("corpus.path", "./data/train.json")
	v.SetDefault("corpus.min_score", 0.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "./finchat.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("eval.sample", 10)
	v.SetDefault("eval.concurrency", 2)
	v.SetDefault("eval.tolerance", 0.1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
