package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LOKAPASAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Commerce CommerceConfig
	Payment  PaymentConfig
	Session  SessionConfig
	Redis    RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Commerce.BaseURL) == "" {
		return nil, fmt.Errorf("LOKAPASAR_COMMERCE_BASE_URL is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOKAPASAR_APP_ENV" default:"dev"`
	Port         string `envconfig:"LOKAPASAR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LOKAPASAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOKAPASAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CommerceConfig points the service at the upstream commerce API.
type CommerceConfig struct {
	BaseURL        string        `envconfig:"LOKAPASAR_COMMERCE_BASE_URL"`
	BearerToken    string        `envconfig:"LOKAPASAR_COMMERCE_BEARER_TOKEN"`
	RequestTimeout time.Duration `envconfig:"LOKAPASAR_COMMERCE_REQUEST_TIMEOUT" default:"10s"`
	RetryAttempts  int           `envconfig:"LOKAPASAR_COMMERCE_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"LOKAPASAR_COMMERCE_RETRY_BASE_DELAY" default:"500ms"`
}

// PaymentConfig covers the snap widget and invoice pricing constants.
type PaymentConfig struct {
	SnapScriptURL string        `envconfig:"LOKAPASAR_SNAP_SCRIPT_URL" default:"https://app.sandbox.midtrans.com/snap/snap.js"`
	SnapClientKey string        `envconfig:"LOKAPASAR_SNAP_CLIENT_KEY"`
	AdminFeeIDR   int64         `envconfig:"LOKAPASAR_ADMIN_FEE_IDR" default:"1000"`
	PollInterval  time.Duration `envconfig:"LOKAPASAR_PAYMENT_POLL_INTERVAL" default:"10s"`
}

// SessionConfig bounds checkout session lifetime in the store.
type SessionConfig struct {
	TTL time.Duration `envconfig:"LOKAPASAR_SESSION_TTL" default:"2h"`
}

// RedisConfig is optional; an empty URL selects the in-memory session store.
type RedisConfig struct {
	URL          string        `envconfig:"LOKAPASAR_REDIS_URL"`
	PoolSize     int           `envconfig:"LOKAPASAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOKAPASAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOKAPASAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOKAPASAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOKAPASAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}
