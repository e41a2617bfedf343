package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Apollo    ApolloConfig    `yaml:"apollo" mapstructure:"apollo"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ApolloConfig holds Apollo.io API settings.
type ApolloConfig struct {
	Key               string      `yaml:"key" mapstructure:"key"`
	BaseURL           string      `yaml:"base_url" mapstructure:"base_url"`
	APIBaseURL        string      `yaml:"api_base_url" mapstructure:"api_base_url"`
	RatePerSec        float64     `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst             int         `yaml:"burst" mapstructure:"burst"`
	DefaultRegion     string      `yaml:"default_region" mapstructure:"default_region"`
	SearchTimeoutSecs int         `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
	DetailTimeoutSecs int         `yaml:"detail_timeout_secs" mapstructure:"detail_timeout_secs"`
	OrgTimeoutSecs    int         `yaml:"org_timeout_secs" mapstructure:"org_timeout_secs"`
	Retry             RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures provider retries. Bases are in milliseconds.
type RetryConfig struct {
	MaxAttempts     int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimitBaseMs int `yaml:"rate_limit_base_ms" mapstructure:"rate_limit_base_ms"`
	NetworkBaseMs   int `yaml:"network_base_ms" mapstructure:"network_base_ms"`
	ServerBaseMs    int `yaml:"server_base_ms" mapstructure:"server_base_ms"`
}

// EnrichConfig configures the discovery chain and enrichment fan-out.
type EnrichConfig struct {
	Workers            int      `yaml:"workers" mapstructure:"workers"`
	MaxStubs           int      `yaml:"max_stubs" mapstructure:"max_stubs"`
	DefaultTitles      []string `yaml:"default_titles" mapstructure:"default_titles"`
	DefaultSeniorities []string `yaml:"default_seniorities" mapstructure:"default_seniorities"`
	PaidTitles         []string `yaml:"paid_titles" mapstructure:"paid_titles"`
	CompanyMetrics     bool     `yaml:"company_metrics" mapstructure:"company_metrics"`
	// EmployeeRanges are headcount bucket labels such as "10-50".
	EmployeeRanges []string `yaml:"employee_ranges" mapstructure:"employee_ranges"`
}

// CacheConfig configures the contact cache tiers.
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// TTL returns the configured cache lifetime. Zero means entries never expire.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 0
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	RegionCode string `yaml:"region_code" mapstructure:"region_code"`
}

// DiscoveryConfig configures company discovery via Places search.
type DiscoveryConfig struct {
	RateLimit          float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxPages           int      `yaml:"max_pages" mapstructure:"max_pages"`
	PageSize           int      `yaml:"page_size" mapstructure:"page_size"`
	DirectoryBlocklist []string `yaml:"directory_blocklist" mapstructure:"directory_blocklist"`
	CheckReachable     bool     `yaml:"check_reachable" mapstructure:"check_reachable"`
	URLTimeoutSecs     int      `yaml:"url_timeout_secs" mapstructure:"url_timeout_secs"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Apollo ApolloPricing `yaml:"apollo" mapstructure:"apollo"`
	Google GooglePricing `yaml:"google" mapstructure:"google"`
}

// ApolloPricing holds Apollo credit pricing.
type ApolloPricing struct {
	USDPerCredit    float64 `yaml:"usd_per_credit" mapstructure:"usd_per_credit"`
	PlanMonthly     float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	CreditsIncluded float64 `yaml:"credits_included" mapstructure:"credits_included"`
}

// GooglePricing holds Places API pricing.
type GooglePricing struct {
	PerTextSearch float64 `yaml:"per_text_search" mapstructure:"per_text_search"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"apollo.key", "google.key", "store.database_url", "cache.redis_addr", "cache.redis_password"} {
		_ = v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("apollo.api_base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("apollo.rate_per_sec", 2.0)
	v.SetDefault("apollo.burst", 5)
	v.SetDefault("apollo.default_region", "IN")
	v.SetDefault("apollo.search_timeout_secs", 30)
	v.SetDefault("apollo.detail_timeout_secs", 15)
	v.SetDefault("apollo.org_timeout_secs", 10)
	v.SetDefault("apollo.retry.max_attempts", 3)
	v.SetDefault("apollo.retry.rate_limit_base_ms", 1000)
	v.SetDefault("apollo.retry.network_base_ms", 2000)
	v.SetDefault("apollo.retry.server_base_ms", 1000)
	v.SetDefault("enrich.workers", 5)
	v.SetDefault("enrich.max_stubs", 100)
	v.SetDefault("enrich.company_metrics", false)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 720)
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("discovery.rate_limit", 10.0)
	v.SetDefault("discovery.max_pages", 3)
	v.SetDefault("discovery.page_size", 20)
	v.SetDefault("discovery.directory_blocklist", []string{
		"yelp.com", "facebook.com", "linkedin.com", "instagram.com", "justdial.com",
		"indiamart.com", "sulekha.com", "google.com", "yellowpages.com", "tradeindia.com",
	})
	v.SetDefault("discovery.url_timeout_secs", 5)
	v.SetDefault("pricing.apollo.plan_monthly", 49.00)
	v.SetDefault("pricing.apollo.credits_included", 1000)
	v.SetDefault("pricing.google.per_text_search", 0.032)
	v.SetDefault("batch.max_concurrent_companies", 5)
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

// Validate checks the settings a command mode depends on. Mode is one of
// enrich, discover, transfer or serve.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "enrich", "transfer":
		if c.Apollo.Key == "" {
			errs = append(errs, "apollo.key is required")
		}
	case "discover":
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
	case "serve":
		if c.Apollo.Key == "" {
			errs = append(errs, "apollo.key is required")
		}
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if c.Enrich.Workers < 1 || c.Enrich.Workers > 50 {
		errs = append(errs, "enrich.workers must be between 1 and 50")
	}
	if c.Enrich.MaxStubs < 1 {
		errs = append(errs, "enrich.max_stubs must be > 0")
	}
	if c.Batch.MaxConcurrentCompanies < 1 || c.Batch.MaxConcurrentCompanies > 50 {
		errs = append(errs, "batch.max_concurrent_companies must be between 1 and 50")
	}
	if c.Apollo.RatePerSec < 0 {
		errs = append(errs, "apollo.rate_per_sec must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
