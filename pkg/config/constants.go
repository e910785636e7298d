package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvStorageDriver     = "STOREFRONT_STORAGE_DRIVER"
	EnvDBDriver          = "STOREFRONT_DB_DRIVER"
	EnvDBDSN             = "STOREFRONT_DB_DSN"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvRedisAddr         = "STOREFRONT_REDIS_ADDR"
	EnvDiscountsBaseURL  = "STOREFRONT_DISCOUNTS_BASE_URL"
	EnvDiscountsDemoMode = "STOREFRONT_DISCOUNTS_DEMO_MODE"
	EnvDiscountsTimeout  = "STOREFRONT_DISCOUNTS_TIMEOUT"
	EnvTaxRateBPS        = "STOREFRONT_TAX_RATE_BPS"
)
