package watchdog

import (
	"sync"
	"time"

	"github.com/web3-frozen/chain-watchdog/internal/metrics"
)

// Ledger is the bounded, most-recent-first collection of alerts and the
// source of truth for the current security status. Appends come from the
// evaluation loop; acknowledgments come from request handlers, so every
// operation takes the lock.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	nextID   int64
	alerts   []Alert // index 0 is the newest
}

func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ledger{capacity: capacity, nextID: 1}
}

// Append assigns an id and timestamp, inserts the alert at the head, and
// truncates to capacity (oldest dropped, acknowledged or not). The stored
// alert is returned.
func (l *Ledger) Append(a Alert) Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	a.ID = l.nextID
	l.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	l.alerts = append([]Alert{a}, l.alerts...)
	if len(l.alerts) > l.capacity {
		l.alerts = l.alerts[:l.capacity]
	}

	metrics.AlertsCreatedTotal.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	metrics.LedgerSize.Set(float64(len(l.alerts)))
	return a
}

// Acknowledge flips the alert's acknowledged flag. Returns whether the id was
// found; acknowledging an already-acknowledged alert still returns true.
func (l *Ledger) Acknowledge(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.alerts {
		if l.alerts[i].ID == id {
			if !l.alerts[i].Acknowledged {
				l.alerts[i].Acknowledged = true
				metrics.AlertsAcknowledgedTotal.Inc()
			}
			return true
		}
	}
	return false
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.alerts)
}

// Recent returns up to limit alerts, most-recent-first.
func (l *Ledger) Recent(limit int) []Alert {
	return l.Filtered(limit, "", nil)
}

// Filtered returns up to limit alerts, most-recent-first, optionally filtered
// by severity and acknowledged state. Filtering is a pure post-filter.
func (l *Ledger) Filtered(limit int, severity Severity, acknowledged *bool) []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.alerts) {
		limit = len(l.alerts)
	}

	out := make([]Alert, 0, limit)
	for _, a := range l.alerts {
		if severity != "" && a.Severity != severity {
			continue
		}
		if acknowledged != nil && a.Acknowledged != *acknowledged {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}

// highestUnacked returns the highest unacknowledged severity among the most
// recent window alerts, and whether any was found.
func (l *Ledger) highestUnacked(window int) (Severity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if window <= 0 || window > len(l.alerts) {
		window = len(l.alerts)
	}

	var highest Severity
	found := false
	for _, a := range l.alerts[:window] {
		if a.Acknowledged {
			continue
		}
		if !found || a.Severity.rank() > highest.rank() {
			highest = a.Severity
			found = true
		}
	}
	return highest, found
}
