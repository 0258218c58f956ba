package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"partnerdispatch/internal/adapters/out/postgres"
	"partnerdispatch/internal/feed"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	RoutesOSRM     = "osrm"
	RoutesStraight = "straight"

	FeedSimulated = "simulated"
	FeedDevice    = "device"
)

type Config struct {
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"dispatch"`
	DBSslMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	RouteProvider string        `envconfig:"ROUTE_PROVIDER" default:"straight"`
	OSRMBaseURL   string        `envconfig:"OSRM_BASE_URL" default:"https://router.project-osrm.org"`
	OSRMTimeout   time.Duration `envconfig:"OSRM_TIMEOUT" default:"5s"`
	RouteSteps    int           `envconfig:"ROUTE_STEPS" default:"20"`

	FeedMode         string        `envconfig:"FEED_MODE" default:"simulated"`
	FeedCadence      time.Duration `envconfig:"FEED_CADENCE" default:"1s"`
	SubscriberBuffer int           `envconfig:"SUBSCRIBER_BUFFER" default:"16"`
	StaleAfter       time.Duration `envconfig:"STALE_AFTER" default:"5s"`
	Heartbeat        time.Duration `envconfig:"STREAM_HEARTBEAT" default:"15s"`
	ChannelTTL       time.Duration `envconfig:"CHANNEL_TTL" default:"10m"`

	SessionIdleTTL   time.Duration `envconfig:"SESSION_IDLE_TTL" default:"12h"`
	TokenTTL         time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	TokenHashKey     string        `envconfig:"TOKEN_HASH_KEY"`
	TokenBlockKey    string        `envconfig:"TOKEN_BLOCK_KEY"`
	DispatcherAPIKey string        `envconfig:"DISPATCHER_API_KEY"`

	NSQEnabled     bool   `envconfig:"NSQ_ENABLED" default:"false"`
	NSQDHost       string `envconfig:"NSQD_HOST" default:"localhost:4150"`
	NSQStatusTopic string `envconfig:"NSQ_STATUS_TOPIC" default:"job.status"`

	ValidateRequests bool   `envconfig:"VALIDATE_REQUESTS" default:"true"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.HTTPPort > 0 && c.HTTPPort < 65536, "HTTP_PORT %d", c.HTTPPort)
	check(c.StoreDriver == StoreMemory || c.StoreDriver == StorePostgres, "STORE_DRIVER %q", c.StoreDriver)
	if c.StoreDriver == StorePostgres {
		check(c.DBHost != "", "DB_HOST is required")
		check(c.DBName != "", "DB_NAME is required")
	}
	check(c.RouteProvider == RoutesOSRM || c.RouteProvider == RoutesStraight, "ROUTE_PROVIDER %q", c.RouteProvider)
	check(c.RouteProvider != RoutesOSRM || c.OSRMBaseURL != "", "OSRM_BASE_URL is required")
	check(c.RouteSteps >= 1, "ROUTE_STEPS %d", c.RouteSteps)
	check(c.FeedMode == FeedSimulated || c.FeedMode == FeedDevice, "FEED_MODE %q", c.FeedMode)
	check(c.FeedCadence >= feed.MinCadence, "FEED_CADENCE %s is below %s", c.FeedCadence, feed.MinCadence)
	check(c.SubscriberBuffer >= 1, "SUBSCRIBER_BUFFER %d", c.SubscriberBuffer)
	check(c.StaleAfter > 0, "STALE_AFTER %s", c.StaleAfter)
	check(c.SessionIdleTTL > 0, "SESSION_IDLE_TTL %s", c.SessionIdleTTL)
	check(c.TokenTTL > 0, "TOKEN_TTL %s", c.TokenTTL)
	check(!c.NSQEnabled || c.NSQDHost != "", "NSQD_HOST is required")
	if _, _, err := c.TokenKeys(); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

func (c Config) DSN() string {
	return postgres.DSN(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// TokenKeys decodes the hex encoded token keys. Both are nil when unset, in
// which case random keys are used and tokens do not survive a restart.
func (c Config) TokenKeys() ([]byte, []byte, error) {
	if c.TokenHashKey == "" && c.TokenBlockKey == "" {
		return nil, nil, nil
	}
	hashKey, err := hex.DecodeString(c.TokenHashKey)
	if err != nil || len(hashKey) < 32 {
		return nil, nil, fmt.Errorf("%w: TOKEN_HASH_KEY must be at least 32 hex encoded bytes", ErrInvalidConfig)
	}
	blockKey, err := hex.DecodeString(c.TokenBlockKey)
	if err != nil || (len(blockKey) != 16 && len(blockKey) != 24 && len(blockKey) != 32) {
		return nil, nil, fmt.Errorf("%w: TOKEN_BLOCK_KEY must be 16, 24 or 32 hex encoded bytes", ErrInvalidConfig)
	}
	return hashKey, blockKey, nil
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
