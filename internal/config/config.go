// Package config loads the runtime tunables for the event-scheduling core
// from environment variables, applying the defaults mandated by the
// scheduling policy (claim TTL, queue capacity). The aging constants live
// in internal/scheduling.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSaveSeed seeds every deterministic PRNG derivation when no
	// save-specific seed has been loaded yet.
	DefaultSaveSeed int64 = 123
	// DefaultTickHz is the cadence at which the surrounding harness drives
	// the core (not used internally; carried for parity with the save file).
	DefaultTickHz = 2

	// DefaultQueueCapacity bounds the number of live events the EventQueue
	// will accept before publish starts failing with CapacityExceeded.
	DefaultQueueCapacity = 10_000

	// DefaultClaimTTL is the grace period before a zero-progress claim is
	// reclaimed and escalated to officers. The aging constants live in
	// internal/scheduling, which is where they are consumed.
	DefaultClaimTTL = 120 * time.Second

	// DefaultSnapshotsDir is where out-of-core tick-solver snapshots land.
	DefaultSnapshotsDir = "data/snapshots"
	// DefaultSavesDir is where named saves are persisted as JSON documents.
	DefaultSavesDir = "data/saves"
	// DefaultAuditDir is where exported, zstd-compressed audit-trail
	// segments are written.
	DefaultAuditDir = "data/audit"
	// DefaultStateFile is where the CLI harness persists the engine bundle
	// (live events and subscriptions) between invocations.
	DefaultStateFile = "data/state.json"

	// DefaultLogLevel controls verbosity for core logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "starship-events.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true

	// EnvStateFile overrides the path the CLI harness uses to persist the
	// in-memory queue/broker bundle between invocations.
	EnvStateFile = "EVT_STATE_FILE"
)

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Paths captures the on-disk locations the harness reads/writes.
type Paths struct {
	SnapshotsDir string
	SavesDir     string
	AuditDir     string
	StateFile    string
}

// Config captures all runtime tunables for the event-scheduling core.
type Config struct {
	SaveSeed      int64
	TickHz        int
	QueueCapacity int
	ClaimTTL      time.Duration
	Paths         Paths
	Logging       LoggingConfig
}

// Load reads the engine configuration from environment variables, applying
// sane defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		SaveSeed:      DefaultSaveSeed,
		TickHz:        DefaultTickHz,
		QueueCapacity: DefaultQueueCapacity,
		ClaimTTL:      DefaultClaimTTL,
		Paths: Paths{
			SnapshotsDir: getString("EVT_SNAPSHOTS_DIR", DefaultSnapshotsDir),
			SavesDir:     getString("EVT_SAVES_DIR", DefaultSavesDir),
			AuditDir:     getString("EVT_AUDIT_DIR", DefaultAuditDir),
			StateFile:    getString(EnvStateFile, DefaultStateFile),
		},
		Logging: LoggingConfig{
			Level:      strings.TrimSpace(getString("EVT_LOG_LEVEL", DefaultLogLevel)),
			Path:       strings.TrimSpace(getString("EVT_LOG_PATH", DefaultLogPath)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("EVT_SAVE_SEED")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("EVT_SAVE_SEED must be an integer, got %q", raw))
		} else {
			cfg.SaveSeed = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_TICK_HZ")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("EVT_TICK_HZ must be a positive integer, got %q", raw))
		} else {
			cfg.TickHz = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_QUEUE_CAPACITY")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("EVT_QUEUE_CAPACITY must be an integer, got %q", raw))
		} else {
			cfg.QueueCapacity = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_CLAIM_TTL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("EVT_CLAIM_TTL must be a positive duration, got %q", raw))
		} else {
			cfg.ClaimTTL = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("EVT_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("EVT_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("EVT_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("EVT_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("EVT_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
