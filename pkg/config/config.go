package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the gateway reads.
	EnvPrefix = "TMA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Telegram TelegramConfig
	Redis    RedisConfig
	DB       DBConfig
	Cart     CartConfig
	Nav      NavConfig
	Notify   NotifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Cart.SyncDebounce <= 0 {
		return nil, fmt.Errorf("cart sync debounce must be positive")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TMA_APP_ENV" required:"true"`
	Port         string `envconfig:"TMA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TMA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TMA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the commerce REST backend the gateway consumes.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"TMA_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"TMA_UPSTREAM_TIMEOUT" default:"10s"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"TMA_TELEGRAM_BOT_TOKEN" required:"true"`
	// MaxAuthAge bounds how old a launch string's auth_date may be before the
	// signature is rejected. Zero disables the age check.
	MaxAuthAge time.Duration `envconfig:"TMA_TELEGRAM_MAX_AUTH_AGE" default:"24h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TMA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TMA_REDIS_ADDR"`
	Password     string        `envconfig:"TMA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TMA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TMA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TMA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TMA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TMA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TMA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver string `envconfig:"TMA_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"TMA_DB_DSN" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"TMA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TMA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TMA_DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"TMA_DB_AUTO_MIGRATE" default:"true"`
}

type CartConfig struct {
	// SyncDebounce is the quiescence window before the settled item list is
	// pushed upstream.
	SyncDebounce time.Duration `envconfig:"TMA_CART_SYNC_DEBOUNCE" default:"1500ms"`
	// IdleTTL evicts a user's in-memory cart store after this long without
	// activity. The upstream copy remains authoritative.
	IdleTTL time.Duration `envconfig:"TMA_CART_IDLE_TTL" default:"30m"`
}

type NavConfig struct {
	SessionTTL time.Duration `envconfig:"TMA_NAV_SESSION_TTL" default:"12h"`
}

type NotifyConfig struct {
	TTL time.Duration `envconfig:"TMA_NOTIFY_TTL" default:"4s"`
	Cap int           `envconfig:"TMA_NOTIFY_CAP" default:"3"`
}
