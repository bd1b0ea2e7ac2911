package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Razorpay      RazorpayConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"THREADLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"THREADLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"THREADLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"THREADLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"THREADLANE_DB_DSN"`
	Driver string `envconfig:"THREADLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"THREADLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"THREADLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"THREADLANE_DB_USER"`
	LegacyPassword string `envconfig:"THREADLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"THREADLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"THREADLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"THREADLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"THREADLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"THREADLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"THREADLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"THREADLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"THREADLANE_REDIS_ADDR"`
	Password     string        `envconfig:"THREADLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"THREADLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"THREADLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"THREADLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"THREADLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"THREADLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"THREADLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"THREADLANE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"THREADLANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"THREADLANE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"THREADLANE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"THREADLANE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"THREADLANE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"THREADLANE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"THREADLANE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"THREADLANE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"THREADLANE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"THREADLANE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"THREADLANE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"THREADLANE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"THREADLANE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"THREADLANE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	PendingTTL  time.Duration `envconfig:"THREADLANE_CHECKOUT_PENDING_TTL" default:"30m"`
	MaxQuantity int           `envconfig:"THREADLANE_CHECKOUT_MAX_QUANTITY" default:"99"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"THREADLANE_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string `envconfig:"THREADLANE_RAZORPAY_KEY_SECRET" required:"true"`
	Currency  string `envconfig:"THREADLANE_RAZORPAY_CURRENCY" default:"INR"`
	BaseURL   string `envconfig:"THREADLANE_RAZORPAY_BASE_URL"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"THREADLANE_AUTO_MIGRATE" default:"false"`
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
