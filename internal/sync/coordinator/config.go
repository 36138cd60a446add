package coordinator

import (
	"log/slog"
	"time"

	"github.com/stacklok/launch-registry-server/internal/config"
)

// resolveIntervals returns the wait after a handled cycle and the wait after a
// panicked one, falling back to the defaults for unset or invalid values
func resolveIntervals(cfg config.SyncConfig) (interval, errorBackoff time.Duration) {
	interval = cfg.Interval
	if interval <= 0 {
		if interval < 0 {
			slog.Warn("Invalid sync interval, using default",
				"interval", interval,
				"default", config.DefaultSyncInterval)
		}
		interval = config.DefaultSyncInterval
	}

	errorBackoff = cfg.ErrorBackoffInterval
	if errorBackoff <= 0 {
		if errorBackoff < 0 {
			slog.Warn("Invalid sync error backoff interval, using default",
				"interval", errorBackoff,
				"default", config.DefaultErrorBackoffInterval)
		}
		errorBackoff = config.DefaultErrorBackoffInterval
	}

	return interval, errorBackoff
}
