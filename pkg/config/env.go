package config

// EnvPrefix is handed to envconfig; every field names its full variable so lookups
// resolve through the tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"

	defaultSQLiteDSN     = "file:storefront.db?cache=shared&_fk=1"
	defaultSessionSecret = "dev_session_secret_change_me"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvSessionCookie   = "STOREFRONT_SESSION_COOKIE"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvSessionBlockKey = "STOREFRONT_SESSION_BLOCK_KEY"
	EnvSessionMaxAge   = "STOREFRONT_SESSION_MAX_AGE"

	EnvCORSOrigins = "STOREFRONT_CORS_ORIGINS"
	EnvCartStore   = "STOREFRONT_CART_STORE"
	EnvUseSQLite   = "STOREFRONT_USE_SQLITE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
