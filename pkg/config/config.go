package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	CORS         CORSConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// Report every bad setting at once rather than one per restart.
	err := multierr.Combine(
		cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite),
		cfg.Cart.validate(),
		cfg.Session.validate(cfg.App.IsProd()),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	StaticDir    string `envconfig:"STOREFRONT_STATIC_DIR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the duration above which a statement is logged at warn; 0 disables it.
	SlowQuery time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"500ms"`
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

// Enabled reports whether enough redis settings are present to dial.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
	HashKey    string        `envconfig:"STOREFRONT_SESSION_SECRET" default:"dev_session_secret_change_me"`
	BlockKey   string        `envconfig:"STOREFRONT_SESSION_BLOCK_KEY"`
	MaxAge     time.Duration `envconfig:"STOREFRONT_SESSION_MAX_AGE" default:"168h"`
	Secure     bool          `envconfig:"STOREFRONT_SESSION_SECURE" default:"false"`
}

func (s SessionConfig) validate(prod bool) error {
	if strings.TrimSpace(s.CookieName) == "" {
		return fmt.Errorf("%s is required", EnvSessionCookie)
	}
	if s.MaxAge <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionMaxAge)
	}
	if prod && s.HashKey == defaultSessionSecret {
		return fmt.Errorf("%s must be set in production", EnvSessionSecret)
	}
	switch len(s.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("%s must be 16, 24 or 32 bytes", EnvSessionBlockKey)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS"`
}

type CartConfig struct {
	Store string `envconfig:"STOREFRONT_CART_STORE" default:"memory"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Store)) {
	case CartStoreMemory, CartStoreRedis:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvCartStore, CartStoreMemory, CartStoreRedis, c.Store)
}

// UsesRedis reports whether carts are kept in redis.
func (c CartConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(c.Store), CartStoreRedis)
}

type CheckoutConfig struct {
	StorageTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_STORAGE_TIMEOUT" default:"5s"`
	PersistRetries int           `envconfig:"STOREFRONT_CHECKOUT_PERSIST_RETRIES" default:"1"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
	// TrustedProxyHops is the number of proxies that append to X-Forwarded-For.
	// Zero keys clients on the connection address.
	TrustedProxyHops int `envconfig:"STOREFRONT_TRUSTED_PROXY_HOPS" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"STOREFRONT_SEED_CATALOG" default:"true"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
