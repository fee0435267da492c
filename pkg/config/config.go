package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PAYGMETER"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv         = "PAYGMETER_APP_ENV"
	EnvPort           = "PAYGMETER_APP_PORT"
	EnvDBDSN          = "PAYGMETER_DB_DSN"
	EnvDBHost         = "PAYGMETER_DB_HOST"
	EnvDBUser         = "PAYGMETER_DB_USER"
	EnvDBName         = "PAYGMETER_DB_NAME"
	EnvRedisURL       = "PAYGMETER_REDIS_URL"
	EnvEncoderBaseURL = "PAYGMETER_ENCODER_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Encoder      EncoderConfig
	Payments     PaymentsConfig
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
	Env          string `envconfig:"PAYGMETER_APP_ENV" required:"true"`
	Port         string `envconfig:"PAYGMETER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAYGMETER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAYGMETER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PAYGMETER_DB_DSN"`
	Driver string `envconfig:"PAYGMETER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAYGMETER_DB_HOST"`
	LegacyPort     int    `envconfig:"PAYGMETER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAYGMETER_DB_USER"`
	LegacyPassword string `envconfig:"PAYGMETER_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAYGMETER_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAYGMETER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAYGMETER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAYGMETER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAYGMETER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAYGMETER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAYGMETER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PAYGMETER_REDIS_ADDR"`
	Password     string        `envconfig:"PAYGMETER_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAYGMETER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAYGMETER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAYGMETER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAYGMETER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAYGMETER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAYGMETER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EncoderConfig points at the external token-encoder service that signs
// device unlock codes.
type EncoderConfig struct {
	BaseURL    string        `envconfig:"PAYGMETER_ENCODER_BASE_URL" required:"true"`
	APIKey     string        `envconfig:"PAYGMETER_ENCODER_API_KEY"`
	Timeout    time.Duration `envconfig:"PAYGMETER_ENCODER_TIMEOUT" default:"10s"`
	MaxRetries uint64        `envconfig:"PAYGMETER_ENCODER_MAX_RETRIES" default:"2"`
	RetryBase  time.Duration `envconfig:"PAYGMETER_ENCODER_RETRY_BASE" default:"250ms"`
}

type PaymentsConfig struct {
	// IdempotencyTTL bounds how long a replayed Idempotency-Key returns the
	// stored response instead of re-applying the payment.
	IdempotencyTTL time.Duration `envconfig:"PAYGMETER_PAYMENT_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAYGMETER_AUTO_MIGRATE" default:"false"`
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
