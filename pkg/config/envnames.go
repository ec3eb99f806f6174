package config

// Environment variable names, kept as constants so tests and tooling do not
// hardcode strings.
const (
	EnvAppEnv          = "TMA_APP_ENV"
	EnvAppPort         = "TMA_APP_PORT"
	EnvLogLevel        = "TMA_LOG_LEVEL"
	EnvUpstreamBaseURL = "TMA_UPSTREAM_BASE_URL"
	EnvBotToken        = "TMA_TELEGRAM_BOT_TOKEN"
	EnvRedisURL        = "TMA_REDIS_URL"
	EnvDBDriver        = "TMA_DB_DRIVER"
	EnvDBDSN           = "TMA_DB_DSN"
	EnvCartDebounce    = "TMA_CART_SYNC_DEBOUNCE"
)
