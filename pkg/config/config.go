package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Ordering     OrderingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Ordering.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WHOLESALE_APP_ENV" required:"true"`
	Port         string `envconfig:"WHOLESALE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WHOLESALE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WHOLESALE_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"WHOLESALE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WHOLESALE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WHOLESALE_DB_DSN"`
	Driver string `envconfig:"WHOLESALE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WHOLESALE_DB_HOST"`
	LegacyPort     int    `envconfig:"WHOLESALE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WHOLESALE_DB_USER"`
	LegacyPassword string `envconfig:"WHOLESALE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WHOLESALE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WHOLESALE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"WHOLESALE_SQLITE_PATH" default:"wholesale.db"`

	MaxOpenConns    int           `envconfig:"WHOLESALE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WHOLESALE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"WHOLESALE_DB_SLOW_QUERY" default:"200ms"`
	TxRetries       int           `envconfig:"WHOLESALE_DB_TX_RETRIES" default:"2"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WHOLESALE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WHOLESALE_REDIS_ADDR"`
	Password     string        `envconfig:"WHOLESALE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WHOLESALE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WHOLESALE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WHOLESALE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WHOLESALE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WHOLESALE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WHOLESALE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"WHOLESALE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WHOLESALE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WHOLESALE_AUTO_MIGRATE" default:"false"`
}

// OrderingConfig tunes order numbering and per-account serialization.
type OrderingConfig struct {
	OrderNumberPrefix string        `envconfig:"WHOLESALE_ORDER_NUMBER_PREFIX" default:"ORD"`
	LockBackend       string        `envconfig:"WHOLESALE_ACCOUNT_LOCK_BACKEND" default:"local"`
	LockTTL           time.Duration `envconfig:"WHOLESALE_ACCOUNT_LOCK_TTL" default:"15s"`
	LockRetryInterval time.Duration `envconfig:"WHOLESALE_ACCOUNT_LOCK_RETRY" default:"25ms"`
	LockWait          time.Duration `envconfig:"WHOLESALE_ACCOUNT_LOCK_WAIT" default:"5s"`
}

func (o OrderingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.LockBackend)) {
	case LockBackendLocal, LockBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvAccountLockBackend, LockBackendLocal, LockBackendRedis)
	}
	if strings.TrimSpace(o.OrderNumberPrefix) == "" {
		return fmt.Errorf("%s must not be empty", EnvOrderNumberPrefix)
	}
	return nil
}

// UsesRedisLock reports whether account locks are coordinated through Redis.
func (o OrderingConfig) UsesRedisLock() bool {
	return strings.EqualFold(strings.TrimSpace(o.LockBackend), LockBackendRedis)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WHOLESALE_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"WHOLESALE_GOOGLE_APPLICATION_CREDENTIALS"`
	CredentialsJSON        string `envconfig:"WHOLESALE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"WHOLESALE_PUBSUB_ORDERS_TOPIC" default:"wholesale-order-events"`
	CreditTopic string `envconfig:"WHOLESALE_PUBSUB_CREDIT_TOPIC" default:"wholesale-credit-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WHOLESALE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WHOLESALE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WHOLESALE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"WHOLESALE_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"WHOLESALE_CRON_LOCK_TTL" default:"10m"`
	JobTimeout      time.Duration `envconfig:"WHOLESALE_CRON_JOB_TIMEOUT" default:"5m"`
	OutboxRetention time.Duration `envconfig:"WHOLESALE_OUTBOX_RETENTION" default:"720h"`
	OutboxBacklog   int64         `envconfig:"WHOLESALE_OUTBOX_BACKLOG_WARN" default:"1000"`
}

// ensureDSN assembles a keyword/value DSN from the split WHOLESALE_DB_*
// variables when no WHOLESALE_DB_DSN is given.
func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}
	parts := []struct{ env, key, value string }{
		{EnvDBHost, "host", db.LegacyHost},
		{EnvDBUser, "user", db.LegacyUser},
		{EnvDBName, "dbname", db.LegacyName},
	}
	var missing []string
	for _, p := range parts {
		if p.value == "" {
			missing = append(missing, p.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is not set and neither is %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	kv := make([]string, 0, len(parts)+3)
	for _, p := range parts {
		kv = append(kv, p.key+"="+quoteDSN(p.value))
	}
	kv = append(kv, "port="+strconv.Itoa(db.LegacyPort))
	if db.LegacyPassword != "" {
		kv = append(kv, "password="+quoteDSN(db.LegacyPassword))
	}
	if db.LegacySSLMode != "" {
		kv = append(kv, "sslmode="+quoteDSN(db.LegacySSLMode))
	}
	db.DSN = strings.Join(kv, " ")
	return nil
}

// quoteDSN single-quotes values libpq would otherwise split or misread.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}
