// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Analyzer     AnalyzerConfig     `yaml:"analyzer" mapstructure:"analyzer"`
	Scoring      ScoringConfig      `yaml:"scoring" mapstructure:"scoring"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	PageSpeed    VendorConfig       `yaml:"pagespeed" mapstructure:"pagespeed"`
	Traffic      VendorConfig       `yaml:"traffic" mapstructure:"traffic"`
	Backlinks    VendorConfig       `yaml:"backlinks" mapstructure:"backlinks"`
	TechDetect   VendorConfig       `yaml:"techdetect" mapstructure:"techdetect"`
	SocialGraph  VendorConfig       `yaml:"socialgraph" mapstructure:"socialgraph"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	ContentAudit ContentAuditConfig `yaml:"contentaudit" mapstructure:"contentaudit"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the analyze server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalyzerConfig tunes the single-site fan-out.
type AnalyzerConfig struct {
	// ProviderTimeoutSecs bounds each provider attempt.
	ProviderTimeoutSecs int `yaml:"provider_timeout_secs" mapstructure:"provider_timeout_secs"`
	// AuditTimeoutSecs bounds each attempt of the slow audit-style providers.
	AuditTimeoutSecs int `yaml:"audit_timeout_secs" mapstructure:"audit_timeout_secs"`
	// AuditMaxAttempts bounds retries for audit-style providers.
	AuditMaxAttempts int `yaml:"audit_max_attempts" mapstructure:"audit_max_attempts"`
	// AuditBackoffMs is the fixed delay between audit retries.
	AuditBackoffMs int `yaml:"audit_backoff_ms" mapstructure:"audit_backoff_ms"`
	// BreakerFailures trips a provider's circuit after this many
	// consecutive transient failures. 0 disables circuit breaking.
	BreakerFailures int `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	// BreakerResetSecs is how long a tripped circuit stays open.
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ProviderTimeout returns the standard per-attempt timeout.
func (c AnalyzerConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}

// AuditTimeout returns the per-attempt timeout for audit providers.
func (c AnalyzerConfig) AuditTimeout() time.Duration {
	return time.Duration(c.AuditTimeoutSecs) * time.Second
}

// AuditBackoff returns the fixed retry backoff for audit providers.
func (c AnalyzerConfig) AuditBackoff() time.Duration {
	return time.Duration(c.AuditBackoffMs) * time.Millisecond
}

// ScoringConfig holds the market-share category weights. The 30/40/30
// split is a product decision carried over as an explicit default, not a
// derived quantity.
type ScoringConfig struct {
	SEOWeight       float64 `yaml:"seo_weight" mapstructure:"seo_weight"`
	TrafficWeight   float64 `yaml:"traffic_weight" mapstructure:"traffic_weight"`
	BacklinksWeight float64 `yaml:"backlinks_weight" mapstructure:"backlinks_weight"`
}

// CacheConfig configures the metric cache gateway.
type CacheConfig struct {
	// PolicyFile optionally points at a yaml file overriding per-metric TTLs.
	PolicyFile string `yaml:"policy_file" mapstructure:"policy_file"`
	// TTLHours overrides individual metric TTLs, keyed by metric kind.
	TTLHours map[string]int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// VendorConfig holds one third-party metric API's settings.
type VendorConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// AnthropicConfig holds the optional insight-summary settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ContentAuditConfig configures the local homepage content audit.
type ContentAuditConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPETE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "compete.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("analyzer.provider_timeout_secs", 15)
	v.SetDefault("analyzer.audit_timeout_secs", 45)
	v.SetDefault("analyzer.audit_max_attempts", 2)
	v.SetDefault("analyzer.audit_backoff_ms", 2000)
	v.SetDefault("analyzer.breaker_failures", 5)
	v.SetDefault("analyzer.breaker_reset_secs", 30)
	v.SetDefault("scoring.seo_weight", 30.0)
	v.SetDefault("scoring.traffic_weight", 40.0)
	v.SetDefault("scoring.backlinks_weight", 30.0)
	v.SetDefault("pagespeed.base_url", "https://www.googleapis.com/pagespeedonline/v5")
	v.SetDefault("pagespeed.rps", 1.0)
	v.SetDefault("traffic.base_url", "https://api.trafficestimate.io/v1")
	v.SetDefault("traffic.rps", 5.0)
	v.SetDefault("backlinks.base_url", "https://api.linkgraph.dev/v2")
	v.SetDefault("backlinks.rps", 2.0)
	v.SetDefault("techdetect.base_url", "https://api.techdetect.io/v1")
	v.SetDefault("techdetect.rps", 2.0)
	v.SetDefault("socialgraph.base_url", "https://api.socialgraph.app/v1")
	v.SetDefault("socialgraph.rps", 5.0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("contentaudit.timeout_secs", 20)
	v.SetDefault("contentaudit.user_agent", "compete-cli/1.0 (+https://sitepulse.dev)")

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

// InitLogger builds the global zap logger from LogConfig.
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
