package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rentalspot/internal/domain/pricing"
)

var configKeys = []string{
	"APP_ENV", "HTTP_ADDR", "STORAGE", "MONGO_URI", "MONGO_DB", "MONGO_TRANSACTIONS",
	"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "KAFKA_GROUP_ID", "OUTBOX_POLL_INTERVAL",
	"RETRY_BACKOFF", "IDEMP_TTL", "HOLD_TTL", "HOLD_SWEEP_INTERVAL", "CALENDAR_MONTHS_AHEAD",
	"SEASON_TIE_BREAK", "WEEKEND_STACKING", "OVERRIDE_FLAT_RATE_DEFAULT", "S3_ENDPOINT",
	"S3_USE_SSL", "CRON_TOKEN", "PROPERTY_FIXTURES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("storage: got %s, want %s", cfg.Storage, StorageMemory)
	}
	if cfg.HoldTTL != 15*time.Minute || cfg.IdempotencyTTL != 168*time.Hour {
		t.Errorf("ttls: got hold=%v idem=%v", cfg.HoldTTL, cfg.IdempotencyTTL)
	}
	if cfg.CalendarMonthsAhead != 12 || !cfg.OverrideFlatRateDefault {
		t.Errorf("calendar defaults: got months=%d flat=%v", cfg.CalendarMonthsAhead, cfg.OverrideFlatRateDefault)
	}
	if cfg.Pricing != pricing.DefaultOptions() {
		t.Errorf("pricing: got %+v", cfg.Pricing)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[2] != 30*time.Second {
		t.Errorf("backoff: got %v", cfg.RetryBackoff)
	}
}

func TestLoadInfersMongoFromURI(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("SEASON_TIE_BREAK", "Specific")
	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != StorageMongo {
		t.Errorf("storage: got %s, want mongo", cfg.Storage)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("brokers: got %v", cfg.KafkaBrokers)
	}
	if cfg.Pricing.SeasonTieBreak != pricing.TieBreakSpecific {
		t.Errorf("tie break: got %s", cfg.Pricing.SeasonTieBreak)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"STORAGE":               "redis",
		"HOLD_TTL":              "0s",
		"HOLD_SWEEP_INTERVAL":   "-1m",
		"CALENDAR_MONTHS_AHEAD": "48",
		"WEEKEND_STACKING":      "sometimes",
		"MONGO_TRANSACTIONS":    "maybe",
		"RETRY_BACKOFF":         "1s,soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(noEnvFile(t)); err == nil {
				t.Errorf("%s=%s: expected error", key, val)
			}
		})
	}
	t.Run("mongo without uri", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE", "mongo")
		if _, err := Load(noEnvFile(t)); err == nil {
			t.Errorf("expected error")
		}
	})
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("CRON_TOKEN")
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CRON_TOKEN=from-file\nHOLD_TTL=5m\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	os.Unsetenv("HOLD_TTL")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CronToken != "from-file" || cfg.HoldTTL != 5*time.Minute {
		t.Errorf("env file: got token=%q ttl=%v", cfg.CronToken, cfg.HoldTTL)
	}
}
