package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

// StartWatchdog and StopWatchdog are idempotent controls: repeating a
// transition is a conflict, not a crash.

// Controller is the loop control surface; *watchdog.Watchdog satisfies it.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
}

// StartWatchdog restarts the loop under the process context, not the request
// context, so the loop outlives the request.
func StartWatchdog(ctx context.Context, wd Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		err := wd.Start(ctx)
		w.Header().Set("Content-Type", "application/json")
		if errors.Is(err, watchdog.ErrAlreadyRunning) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "already running"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"monitoring": true})
	}
}

func StopWatchdog(wd Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		err := wd.Stop()
		w.Header().Set("Content-Type", "application/json")
		if errors.Is(err, watchdog.ErrNotRunning) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "not running"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"monitoring": false})
	}
}
