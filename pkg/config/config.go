package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Storage   StorageConfig
	DB        DBConfig
	Redis     RedisConfig
	Discounts DiscountsConfig
	Pricing   PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects where carts, wishlists and applied discounts are kept.
type StorageConfig struct {
	Driver      string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"memory"`
	FilePath    string `envconfig:"STOREFRONT_STORAGE_FILE_PATH" default:"./data/storefront"`
	AutoMigrate bool   `envconfig:"STOREFRONT_STORAGE_AUTO_MIGRATE" default:"false"`

	// SessionTTL expires idle session documents on drivers that support it (redis).
	SessionTTL time.Duration `envconfig:"STOREFRONT_STORAGE_SESSION_TTL" default:"720h"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// DiscountsConfig controls the remote discount lookup.
type DiscountsConfig struct {
	BaseURL    string        `envconfig:"STOREFRONT_DISCOUNTS_BASE_URL"`
	Timeout    time.Duration `envconfig:"STOREFRONT_DISCOUNTS_TIMEOUT" default:"5s"`
	MaxRetries uint64        `envconfig:"STOREFRONT_DISCOUNTS_MAX_RETRIES" default:"2"`
	RetryBase  time.Duration `envconfig:"STOREFRONT_DISCOUNTS_RETRY_BASE" default:"100ms"`

	// DemoMode serves the built-in sample codes when the backend is unreachable.
	DemoMode bool `envconfig:"STOREFRONT_DISCOUNTS_DEMO_MODE" default:"false"`

	ApplyWindow time.Duration `envconfig:"STOREFRONT_DISCOUNTS_APPLY_WINDOW" default:"1m"`
	ApplyLimit  int           `envconfig:"STOREFRONT_DISCOUNTS_APPLY_LIMIT" default:"10"`
}

// PricingConfig holds the storefront pricing rules in minor units.
type PricingConfig struct {
	Currency              string `envconfig:"STOREFRONT_CURRENCY" default:"USD"`
	FreeShippingThreshold int64  `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD_CENTS" default:"5000"`
	FlatShipping          int64  `envconfig:"STOREFRONT_FLAT_SHIPPING_CENTS" default:"599"`
	TaxRateBasisPoints    int64  `envconfig:"STOREFRONT_TAX_RATE_BPS" default:"800"`
}

func (c *Config) validate() error {
	switch c.Storage.NormalizedDriver() {
	case StorageDriverMemory, StorageDriverFile:
	case StorageDriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverSQL:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the sql storage driver", EnvDBDSN)
		}
		switch strings.ToLower(c.DB.Driver) {
		case DBDriverPostgres, DBDriverSQLite:
		default:
			return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Discounts.BaseURL) == "" && !c.Discounts.DemoMode {
		return fmt.Errorf("%s is required unless %s is enabled", EnvDiscountsBaseURL, EnvDiscountsDemoMode)
	}
	if c.Pricing.FreeShippingThreshold < 0 || c.Pricing.FlatShipping < 0 || c.Pricing.TaxRateBasisPoints < 0 {
		return fmt.Errorf("pricing values must be non-negative")
	}
	return nil
}
