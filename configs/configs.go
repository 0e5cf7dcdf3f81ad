package configs

import (
	"time"

	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"
)

// Config holds the application wide configuration, parsed from environment
// variables. Database settings live in datastore/gorm.
type Config struct {
	Host string `env:"POX_DATA_HOST"`
	Port int    `env:"POX_DATA_PORT" envDefault:"3000"`

	// Upstream APIs
	HiroAPIHost     string `env:"POX_DATA_HIRO_API_HOST" envDefault:"https://api.hiro.so"`
	HiroAPIKey      string `env:"POX_DATA_HIRO_API_KEY"`
	Signal21APIHost string `env:"POX_DATA_SIGNAL21_API_HOST" envDefault:"https://api-test.signal21.io"`

	// Directory for the raw HTTP response cache, one file per request.
	CacheDir string `env:"POX_DATA_CACHE_DIR" envDefault:"data/raw"`

	// How many days of transaction history to maintain when a sync request
	// does not specify a depth.
	DefaultHistoryDays int `env:"POX_DATA_DEFAULT_HISTORY_DAYS" envDefault:"365"`

	// Upper bound of pages fetched per sync invocation. Operators re-invoke
	// to continue past this.
	SyncMaxPages int `env:"POX_DATA_SYNC_MAX_PAGES" envDefault:"10000"`

	// HTTP retry policy
	RetryMinBackoff  time.Duration `env:"POX_DATA_RETRY_MIN_BACKOFF" envDefault:"500ms"`
	RetryMaxBackoff  time.Duration `env:"POX_DATA_RETRY_MAX_BACKOFF" envDefault:"8s"`
	RetryMaxAttempts int           `env:"POX_DATA_RETRY_MAX_ATTEMPTS" envDefault:"5"`

	// Balance snapshot fan-out
	BalanceRequestRate     int     `env:"POX_DATA_BALANCE_REQUEST_RATE" envDefault:"10"`
	FundedThresholdStx     float64 `env:"POX_DATA_FUNDED_THRESHOLD_STX" envDefault:"10"`
	BalanceSnapshotMaxAddr int     `env:"POX_DATA_BALANCE_SNAPSHOT_MAX_ADDRESSES" envDefault:"5000"`

	// Jobs
	WorkerQueueCapacity uint `env:"POX_DATA_WORKER_QUEUE_CAPACITY" envDefault:"10"`

	// Idempotency middleware
	DisableIdempotencyMiddleware      bool   `env:"POX_DATA_DISABLE_IDEMPOTENCY_MIDDLEWARE" envDefault:"false"`
	IdempotencyMiddlewareDatabaseType string `env:"POX_DATA_IDEMPOTENCY_MIDDLEWARE_DATABASE_TYPE" envDefault:"local"`
	IdempotencyMiddlewareRedisURL     string `env:"POX_DATA_IDEMPOTENCY_MIDDLEWARE_REDIS_URL"`

	ServerRequestTimeout time.Duration `env:"POX_DATA_SERVER_REQUEST_TIMEOUT" envDefault:"60s"`

	LogLevel string `env:"POX_DATA_LOG_LEVEL" envDefault:"info"`
}

// Parse parses environment variables to a valid Config.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigureLogger sets the log level for the package level logrus logger.
func ConfigureLogger(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
