package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Ordering     OrderingConfig
	Discovery    DiscoveryConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.App.IsProd() && cfg.DB.IsSQLite() {
		return nil, fmt.Errorf("%s=%s is not supported in production", EnvDBDriver, DriverSQLite)
	}
	if err := cfg.Ordering.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Discovery.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAFEHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"CAFEHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CAFEHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAFEHOP_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CAFEHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAFEHOP_DB_DSN"`
	Driver string `envconfig:"CAFEHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAFEHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"CAFEHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAFEHOP_DB_USER"`
	LegacyPassword string `envconfig:"CAFEHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAFEHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAFEHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAFEHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAFEHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAFEHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAFEHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CAFEHOP_REDIS_URL"`
	Address      string        `envconfig:"CAFEHOP_REDIS_ADDR"`
	Password     string        `envconfig:"CAFEHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAFEHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAFEHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAFEHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAFEHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAFEHOP_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"CAFEHOP_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAFEHOP_AUTO_MIGRATE" default:"false"`
}

// OrderingConfig holds checkout pricing defaults.
type OrderingConfig struct {
	TaxRate              string `envconfig:"CAFEHOP_ORDER_TAX_RATE" default:"0.10"`
	DefaultPickupMinutes int    `envconfig:"CAFEHOP_ORDER_DEFAULT_PICKUP_MINUTES" default:"15"`
	MaxPickupMinutes     int    `envconfig:"CAFEHOP_ORDER_MAX_PICKUP_MINUTES" default:"180"`
}

// Rate parses the configured tax rate.
func (o OrderingConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(o.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvOrderTaxRate, o.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be non-negative", EnvOrderTaxRate)
	}
	return rate, nil
}

func (o OrderingConfig) validate() error {
	if _, err := o.Rate(); err != nil {
		return err
	}
	if o.DefaultPickupMinutes < 0 || o.MaxPickupMinutes < o.DefaultPickupMinutes {
		return fmt.Errorf("pickup minutes out of range: default=%d max=%d", o.DefaultPickupMinutes, o.MaxPickupMinutes)
	}
	return nil
}

// DiscoveryConfig tunes the nearby-café search.
type DiscoveryConfig struct {
	DefaultMaxDistanceMiles float64       `envconfig:"CAFEHOP_DISCOVERY_MAX_DISTANCE_MILES" default:"10"`
	CafeCacheTTL            time.Duration `envconfig:"CAFEHOP_DISCOVERY_CACHE_TTL" default:"2m"`
	Timezone                string        `envconfig:"CAFEHOP_DISCOVERY_TIMEZONE" default:"Local"`
}

// Location resolves the timezone used to evaluate opening hours.
func (d DiscoveryConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(d.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvDiscoveryTimezone, d.Timezone, err)
	}
	return loc, nil
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"CAFEHOP_CART_SESSION_TTL" default:"24h"`
}

// RateLimitConfig throttles checkout per client IP and per cart session.
// A zero window or zero limits disable the check.
type RateLimitConfig struct {
	CheckoutWindow       time.Duration `envconfig:"CAFEHOP_CHECKOUT_RATE_WINDOW" default:"1m"`
	CheckoutIPLimit      int           `envconfig:"CAFEHOP_CHECKOUT_RATE_IP_LIMIT" default:"30"`
	CheckoutSessionLimit int           `envconfig:"CAFEHOP_CHECKOUT_RATE_SESSION_LIMIT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
