package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Razorpay     RazorpayConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MULTIMART_APP_ENV" required:"true"`
	Port         string `envconfig:"MULTIMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MULTIMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MULTIMART_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MULTIMART_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MULTIMART_DB_DSN"`
	Driver string `envconfig:"MULTIMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MULTIMART_DB_HOST"`
	LegacyPort     int    `envconfig:"MULTIMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MULTIMART_DB_USER"`
	LegacyPassword string `envconfig:"MULTIMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"MULTIMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"MULTIMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MULTIMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MULTIMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MULTIMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MULTIMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MULTIMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MULTIMART_REDIS_ADDR"`
	Password     string        `envconfig:"MULTIMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MULTIMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MULTIMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MULTIMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MULTIMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MULTIMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MULTIMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig tunes the per-session cart store.
type CartConfig struct {
	// SaveDebounce coalesces rapid item mutations into one persistence write.
	SaveDebounce time.Duration `envconfig:"MULTIMART_CART_SAVE_DEBOUNCE" default:"50ms"`
	// NotificationTTL is how long a cart notification stays visible.
	NotificationTTL time.Duration `envconfig:"MULTIMART_CART_NOTIFICATION_TTL" default:"3s"`
	// StorageTTL bounds how long an abandoned cart survives in redis.
	StorageTTL time.Duration `envconfig:"MULTIMART_CART_STORAGE_TTL" default:"720h"`
}

type CheckoutConfig struct {
	DraftTTL time.Duration `envconfig:"MULTIMART_CHECKOUT_DRAFT_TTL" default:"30m"`
}

type RazorpayConfig struct {
	KeyID   string `envconfig:"MULTIMART_RAZORPAY_KEY_ID"`
	Secret  string `envconfig:"MULTIMART_RAZORPAY_SECRET"`
	BaseURL string `envconfig:"MULTIMART_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MULTIMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MULTIMART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
