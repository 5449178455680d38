package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

const defaultAlertLimit = 50

// AlertStore is the ledger surface the alert endpoints need.
type AlertStore interface {
	Alerts(limit int, severity watchdog.Severity, acknowledged *bool) []watchdog.Alert
	Acknowledge(id int64) bool
}

func ListAlerts(wd AlertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultAlertLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}

		var severity watchdog.Severity
		if v := r.URL.Query().Get("severity"); v != "" {
			severity = watchdog.Severity(v)
			switch severity {
			case watchdog.SeverityLow, watchdog.SeverityMedium,
				watchdog.SeverityHigh, watchdog.SeverityCritical:
			default:
				http.Error(w, `{"error":"invalid severity"}`, http.StatusBadRequest)
				return
			}
		}

		var acknowledged *bool
		if v := r.URL.Query().Get("acknowledged"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, `{"error":"invalid acknowledged"}`, http.StatusBadRequest)
				return
			}
			acknowledged = &b
		}

		alerts := wd.Alerts(limit, severity, acknowledged)
		if alerts == nil {
			alerts = []watchdog.Alert{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alerts)
	}
}

func AcknowledgeAlert(wd AlertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid alert id"}`, http.StatusBadRequest)
			return
		}

		if !wd.Acknowledge(id) {
			http.Error(w, `{"error":"alert not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "acknowledged": true})
	}
}
