package handler

import (
	"encoding/json"
	"net/http"

	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

// StatusSource is the pull-side read model; *watchdog.Watchdog satisfies it.
type StatusSource interface {
	Status() watchdog.StatusReport
}

func Status(wd StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wd.Status())
	}
}
