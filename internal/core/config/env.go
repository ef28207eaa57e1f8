// # internal/core/config/env.go
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: CLASSFORGE_[SECTION]_[KEY], e.g.
// CLASSFORGE_SESSION_ADDRESS. Load runs this between decoding and
// validation, so an override is held to the same rules as the file.
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.WorkspaceRoot, "CLASSFORGE_PATHS_WORKSPACE_ROOT")
	setEnvString(&cfg.Paths.StateDir, "CLASSFORGE_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "CLASSFORGE_PATHS_DATABASE_DIR")

	// Naming
	setEnvBool(&cfg.Naming.CaseInsensitive, "CLASSFORGE_NAMING_CASE_INSENSITIVE")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CLASSFORGE_WATCH_DEBOUNCE")

	// Database
	setEnvBool(&cfg.Database.Enabled, "CLASSFORGE_DATABASE_ENABLED")
	setEnvString(&cfg.Database.CatalogPath, "CLASSFORGE_DATABASE_CATALOG_PATH")
	setEnvString(&cfg.Database.JournalPath, "CLASSFORGE_DATABASE_JOURNAL_PATH")
	setEnvString(&cfg.Database.WorkspaceKey, "CLASSFORGE_DATABASE_WORKSPACE_KEY")

	// Session
	setEnvBool(&cfg.Session.Enabled, "CLASSFORGE_SESSION_ENABLED")
	setEnvString(&cfg.Session.Transport, "CLASSFORGE_SESSION_TRANSPORT")
	setEnvString(&cfg.Session.Address, "CLASSFORGE_SESSION_ADDRESS")
	setEnvInt(&cfg.Session.MaxResponseItems, "CLASSFORGE_SESSION_MAX_RESPONSE_ITEMS")
	setEnvDuration(&cfg.Session.RequestTimeout, "CLASSFORGE_SESSION_REQUEST_TIMEOUT")
	setEnvFloat64(&cfg.Session.RateLimit.PerSecond, "CLASSFORGE_SESSION_RATE_LIMIT_PER_SECOND")
	setEnvInt(&cfg.Session.RateLimit.Burst, "CLASSFORGE_SESSION_RATE_LIMIT_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "CLASSFORGE_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CLASSFORGE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "CLASSFORGE_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "CLASSFORGE_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
