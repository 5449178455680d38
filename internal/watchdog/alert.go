package watchdog

import "time"

// AlertType labels the heuristic signal that produced an alert. Attack-pattern
// detection is a set of independent labeled signals, not a single verdict;
// consumers weigh severity themselves.
type AlertType string

const (
	TypeLowPeerCount       AlertType = "LOW_PEER_COUNT"
	TypeMempoolFlood       AlertType = "MEMPOOL_FLOOD"
	TypeHashRateSpike      AlertType = "HASH_RATE_SPIKE"
	TypeHashRateDrop       AlertType = "HASH_RATE_DROP"
	TypeDifficultySpike    AlertType = "DIFFICULTY_SPIKE"
	TypeDeepReorg          AlertType = "DEEP_REORGANIZATION"
	TypeFrequentReorgs     AlertType = "FREQUENT_REORGANIZATIONS"
	TypeHashRateSurge      AlertType = "HASH_RATE_SURGE"
	TypeBlockTimingAnomaly AlertType = "BLOCK_TIMING_ANOMALY"
	TypeRapidBlocks        AlertType = "RAPID_BLOCK_GENERATION"
	TypeMempoolVolatility  AlertType = "MEMPOOL_VOLATILITY"
	TypeSystemError        AlertType = "SYSTEM_ERROR"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// rank orders severities for status aggregation. Unknown severities rank lowest.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Alert is a timestamped, acknowledgeable record of a detected anomaly.
// IDs are assigned by the ledger on append.
type Alert struct {
	ID           int64          `json:"id"`
	Type         AlertType      `json:"type"`
	Severity     Severity       `json:"severity"`
	Message      string         `json:"message"`
	Data         map[string]any `json:"data,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Acknowledged bool           `json:"acknowledged"`
}

// Status is the aggregate security posture derived from recent alerts.
type Status string

const (
	StatusOffline  Status = "OFFLINE"
	StatusSecure   Status = "SECURE"
	StatusMedium   Status = "MEDIUM_ALERT"
	StatusHigh     Status = "HIGH_ALERT"
	StatusCritical Status = "CRITICAL_ALERT"
)

func statusForSeverity(s Severity) Status {
	switch s {
	case SeverityCritical:
		return StatusCritical
	case SeverityHigh:
		return StatusHigh
	case SeverityMedium, SeverityLow:
		return StatusMedium
	default:
		return StatusSecure
	}
}
