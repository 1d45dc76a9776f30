package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rentalspot/internal/domain/pricing"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                     string
	HTTPAddr                string
	Storage                 string
	MongoURI                string
	MongoDB                 string
	MongoTransactions       bool
	KafkaBrokers            []string
	KafkaTopicPrefix        string
	KafkaGroupID            string
	OutboxPollInterval      time.Duration
	RetryBackoff            []time.Duration
	IdempotencyTTL          time.Duration
	HoldTTL                 time.Duration
	HoldSweepInterval       time.Duration
	CalendarMonthsAhead     int
	Pricing                 pricing.Options
	OverrideFlatRateDefault bool
	S3Endpoint              string
	S3AccessKey             string
	S3SecretKey             string
	S3Bucket                string
	S3UseSSL                bool
	CronToken               string
	FixturesPath            string
}

// Load reads an optional .env file, then parses the environment. Variables already set
// in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Storage:          strings.ToLower(getEnv("STORAGE", "")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "rentalspot"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "rentalspot-pricing"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "rentalspot-calendars"),
		CronToken:        os.Getenv("CRON_TOKEN"),
		FixturesPath:     getEnv("PROPERTY_FIXTURES", ""),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageMemory
		if cfg.MongoURI != "" {
			cfg.Storage = StorageMongo
		}
	}

	var err error
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HoldTTL, err = parseDurationEnv("HOLD_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.HoldSweepInterval, err = parseDurationEnv("HOLD_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CalendarMonthsAhead, err = parseIntEnv("CALENDAR_MONTHS_AHEAD", 12); err != nil {
		return Config{}, err
	}
	if cfg.MongoTransactions, err = parseBoolEnv("MONGO_TRANSACTIONS", false); err != nil {
		return Config{}, err
	}
	if cfg.OverrideFlatRateDefault, err = parseBoolEnv("OVERRIDE_FLAT_RATE_DEFAULT", true); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.Pricing.SeasonTieBreak, err = pricing.ParseSeasonTieBreak(getEnv("SEASON_TIE_BREAK", "")); err != nil {
		return Config{}, fmt.Errorf("SEASON_TIE_BREAK: %w", err)
	}
	if cfg.Pricing.WeekendStacking, err = pricing.ParseWeekendStacking(getEnv("WEEKEND_STACKING", "")); err != nil {
		return Config{}, fmt.Errorf("WEEKEND_STACKING: %w", err)
	}

	switch cfg.Storage {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE %q", cfg.Storage)
	}
	if cfg.HoldTTL <= 0 {
		return Config{}, fmt.Errorf("HOLD_TTL must be positive")
	}
	if cfg.HoldSweepInterval < 0 {
		return Config{}, fmt.Errorf("HOLD_SWEEP_INTERVAL must not be negative")
	}
	if cfg.CalendarMonthsAhead < 1 || cfg.CalendarMonthsAhead > 36 {
		return Config{}, fmt.Errorf("CALENDAR_MONTHS_AHEAD must be between 1 and 36")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
