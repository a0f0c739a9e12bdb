package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Limiter      LimiterConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	Admin        AdminConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Limiter.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SEEDLING_APP_ENV" required:"true"`
	Port         string `envconfig:"SEEDLING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SEEDLING_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SEEDLING_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SEEDLING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SEEDLING_DB_DSN"`
	Driver string `envconfig:"SEEDLING_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"SEEDLING_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SEEDLING_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SEEDLING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SEEDLING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SEEDLING_REDIS_URL"`
	Address      string        `envconfig:"SEEDLING_REDIS_ADDR"`
	Password     string        `envconfig:"SEEDLING_REDIS_PASSWORD"`
	DB           int           `envconfig:"SEEDLING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SEEDLING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SEEDLING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SEEDLING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SEEDLING_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SEEDLING_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// LimiterConfig carries the fallback rule used when nothing is stored yet.
type LimiterConfig struct {
	DefaultStep         int    `envconfig:"SEEDLING_DEFAULT_STEP" default:"5"`
	DefaultCategorySlug string `envconfig:"SEEDLING_DEFAULT_CATEGORY_SLUG" default:"seedling"`
	DefaultMinVariation int    `envconfig:"SEEDLING_DEFAULT_MIN_VARIATION" default:"5"`
	DefaultMinTotal     int    `envconfig:"SEEDLING_DEFAULT_MIN_TOTAL" default:"20"`
	SeedDefaults        bool   `envconfig:"SEEDLING_SEED_DEFAULTS" default:"true"`

	// RefreshInterval is how often each instance checks for rule changes; 0 disables.
	RefreshInterval time.Duration `envconfig:"SEEDLING_RULES_REFRESH_INTERVAL" default:"30s"`
	MaxStale        time.Duration `envconfig:"SEEDLING_RULES_MAX_STALE" default:"10m"`
}

func (l LimiterConfig) validate() error {
	if l.DefaultStep < 1 {
		return fmt.Errorf("%s must be at least 1", EnvDefaultStep)
	}
	if l.DefaultMinVariation < 1 {
		return fmt.Errorf("%s must be at least 1", EnvDefaultMinVariation)
	}
	if l.DefaultMinTotal < 0 {
		return fmt.Errorf("%s must not be negative", EnvDefaultMinTotal)
	}
	return nil
}

type CartConfig struct {
	TTL time.Duration `envconfig:"SEEDLING_CART_TTL" default:"48h"`
}

type RateLimitConfig struct {
	CartWindow time.Duration `envconfig:"SEEDLING_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartLimit  int           `envconfig:"SEEDLING_RATE_LIMIT_CART_LIMIT" default:"120"`
}

// AdminConfig guards the admin API. KeyHash, an argon2id hash, takes
// precedence over the plaintext Key when both are set.
type AdminConfig struct {
	Key     string `envconfig:"SEEDLING_ADMIN_KEY"`
	KeyHash string `envconfig:"SEEDLING_ADMIN_KEY_HASH"`
}

// Enabled reports whether any admin credential is configured.
func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Key) != "" || strings.TrimSpace(a.KeyHash) != ""
}

// CORSConfig lists the storefront origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SEEDLING_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SEEDLING_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SEEDLING_AUTO_MIGRATE" default:"false"`
}

// Dialect returns the goose/gorm dialect name matching the configured driver.
func (db DBConfig) Dialect() string {
	if strings.EqualFold(db.Driver, DriverSQLite) {
		return DriverSQLite
	}
	return DriverPostgres
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required unless %s is enabled", EnvDBDSN, EnvUseSQLite)
	}
	return nil
}
