package config

const EnvPrefix = "SEEDLING"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:seedling.db?cache=shared"
)

const (
	EnvAppEnv   = "SEEDLING_APP_ENV"
	EnvPort     = "SEEDLING_APP_PORT"
	EnvLogLevel = "SEEDLING_LOG_LEVEL"

	EnvDBDSN    = "SEEDLING_DB_DSN"
	EnvDBDriver = "SEEDLING_DB_DRIVER"

	EnvRedisURL  = "SEEDLING_REDIS_URL"
	EnvRedisAddr = "SEEDLING_REDIS_ADDR"

	EnvDefaultStep         = "SEEDLING_DEFAULT_STEP"
	EnvDefaultCategorySlug = "SEEDLING_DEFAULT_CATEGORY_SLUG"
	EnvDefaultMinVariation = "SEEDLING_DEFAULT_MIN_VARIATION"
	EnvDefaultMinTotal     = "SEEDLING_DEFAULT_MIN_TOTAL"

	EnvRulesRefreshInterval = "SEEDLING_RULES_REFRESH_INTERVAL"
	EnvRulesMaxStale        = "SEEDLING_RULES_MAX_STALE"
	EnvInstanceID           = "SEEDLING_INSTANCE_ID"

	EnvCartTTL = "SEEDLING_CART_TTL"

	EnvRateLimitCartWindow = "SEEDLING_RATE_LIMIT_CART_WINDOW"
	EnvRateLimitCartLimit  = "SEEDLING_RATE_LIMIT_CART_LIMIT"

	EnvAdminKey     = "SEEDLING_ADMIN_KEY"
	EnvAdminKeyHash = "SEEDLING_ADMIN_KEY_HASH"

	EnvCORSAllowedOrigins = "SEEDLING_CORS_ALLOWED_ORIGINS"

	EnvUseSQLite   = "SEEDLING_USE_SQLITE"
	EnvAutoMigrate = "SEEDLING_AUTO_MIGRATE"
)
