package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds application-wide configuration.
type Config struct {
	Addr             string
	DataDir          string
	Verbose          bool
	EnableSnapshots  bool
	SnapshotInterval time.Duration
	ShutdownTimeout  time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
}

// NewDefaultConfig creates a Config struct with sensible default values.
func NewDefaultConfig() Config {
	return Config{
		Addr:             ":5876",
		DataDir:          "data",
		Verbose:          false,
		EnableSnapshots:  true,
		SnapshotInterval: 5 * time.Minute,
		ShutdownTimeout:  10 * time.Second,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      120 * time.Second,
	}
}

// LoadConfig loads configuration with a clear precedence: Environment > Defaults.
func LoadConfig() Config {
	cfg := NewDefaultConfig()
	slog.Info("Loading configuration...")
	applyEnvConfig(&cfg)
	return cfg
}

// applyEnvConfig overrides config values from environment variables.
func applyEnvConfig(cfg *Config) {
	if addrEnv := os.Getenv("DOCSTORE_ADDR"); addrEnv != "" {
		cfg.Addr = addrEnv
		slog.Info("Overriding Addr from environment", "value", addrEnv)
	}

	if dataDirEnv := os.Getenv("DOCSTORE_DATA_DIR"); dataDirEnv != "" {
		cfg.DataDir = dataDirEnv
		slog.Info("Overriding DataDir from environment", "value", dataDirEnv)
	}

	if verboseEnv := os.Getenv("DOCSTORE_VERBOSE"); verboseEnv != "" {
		if b, err := strconv.ParseBool(verboseEnv); err == nil {
			cfg.Verbose = b
			slog.Info("Overriding Verbose from environment", "value", b)
		} else {
			slog.Warn("Invalid DOCSTORE_VERBOSE env var, using default", "value", verboseEnv)
		}
	}

	if enableSnapshotsEnv := os.Getenv("DOCSTORE_ENABLE_SNAPSHOTS"); enableSnapshotsEnv != "" {
		if b, err := strconv.ParseBool(enableSnapshotsEnv); err == nil {
			cfg.EnableSnapshots = b
			slog.Info("Overriding EnableSnapshots from environment", "value", b)
		} else {
			slog.Warn("Invalid DOCSTORE_ENABLE_SNAPSHOTS env var, using default", "value", enableSnapshotsEnv)
		}
	}

	overrideDuration("DOCSTORE_SNAPSHOT_INTERVAL", &cfg.SnapshotInterval)
	overrideDuration("DOCSTORE_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	overrideDuration("DOCSTORE_READ_TIMEOUT", &cfg.ReadTimeout)
	overrideDuration("DOCSTORE_WRITE_TIMEOUT", &cfg.WriteTimeout)
	overrideDuration("DOCSTORE_IDLE_TIMEOUT", &cfg.IdleTimeout)
}

func overrideDuration(envKey string, target *time.Duration) {
	envVal := os.Getenv(envKey)
	if envVal != "" {
		if d, err := time.ParseDuration(envVal); err == nil {
			*target = d
			slog.Info("Overriding duration from environment", "key", envKey, "value", envVal)
		} else {
			slog.Warn("Invalid duration format in env var, using default", "key", envKey, "value", envVal)
		}
	}
}
