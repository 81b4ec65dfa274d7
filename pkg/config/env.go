package config

const (
	EnvPrefix = "WHOLESALE"

	EnvAppEnv    = "WHOLESALE_APP_ENV"
	EnvPort      = "WHOLESALE_APP_PORT"
	EnvLogLevel  = "WHOLESALE_LOG_LEVEL"
	EnvDBDSN     = "WHOLESALE_DB_DSN"
	EnvDBHost    = "WHOLESALE_DB_HOST"
	EnvDBUser    = "WHOLESALE_DB_USER"
	EnvDBName    = "WHOLESALE_DB_NAME"
	EnvUseSQLite = "WHOLESALE_USE_SQLITE"
	EnvRedisURL  = "WHOLESALE_REDIS_URL"
	EnvJWTSecret = "WHOLESALE_JWT_SECRET"
	EnvJWTIssuer = "WHOLESALE_JWT_ISSUER"

	EnvOrderNumberPrefix  = "WHOLESALE_ORDER_NUMBER_PREFIX"
	EnvAccountLockBackend = "WHOLESALE_ACCOUNT_LOCK_BACKEND"

	EnvGCPProjectID      = "WHOLESALE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "WHOLESALE_PUBSUB_ORDERS_TOPIC"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)
