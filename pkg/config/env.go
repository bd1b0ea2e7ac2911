package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "THREADLANE_APP_ENV"
	EnvPort                   = "THREADLANE_APP_PORT"
	EnvDBDSN                  = "THREADLANE_DB_DSN"
	EnvDBHost                 = "THREADLANE_DB_HOST"
	EnvDBUser                 = "THREADLANE_DB_USER"
	EnvDBName                 = "THREADLANE_DB_NAME"
	EnvRedisURL               = "THREADLANE_REDIS_URL"
	EnvJWTSecret              = "THREADLANE_JWT_SECRET"
	EnvJWTIssuer              = "THREADLANE_JWT_ISSUER"
	EnvJWTExpMins             = "THREADLANE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "THREADLANE_REFRESH_TOKEN_TTL_MINUTES"
	EnvRazorpayKeyID          = "THREADLANE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "THREADLANE_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
