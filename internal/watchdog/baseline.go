package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/web3-frozen/chain-watchdog/internal/config"
	"github.com/web3-frozen/chain-watchdog/internal/rpc"
)

// Baseline holds the reference values representing "normal" network
// conditions, used as the denominator in anomaly ratios. A nil *Baseline
// means "not yet computed"; ratio-based detectors skip in that case.
// Recomputation replaces the whole structure, never merges.
type Baseline struct {
	AvgHashRate      float64   `json:"avg_hash_rate"`
	AvgBlockInterval float64   `json:"avg_block_interval_seconds"`
	AvgDifficulty    float64   `json:"avg_difficulty"`
	AvgMempoolSize   float64   `json:"avg_mempool_size"`
	ComputedAt       time.Time `json:"computed_at"`
}

// computeBaseline waits for the node to answer a liveness probe (bounded
// fixed-delay retries on transient failures, fail-fast on anything the
// retry would not help, rejected credentials included), then derives the
// baseline from one snapshot plus a short walk over recent block headers.
func computeBaseline(ctx context.Context, node NodeClient, th config.Thresholds, target time.Duration, logger *slog.Logger) (*Baseline, error) {
	delay := time.Duration(th.BaselineDelaySec) * time.Second

	var lastErr error
	alive := false
	for attempt := 1; attempt <= th.BaselineAttempts; attempt++ {
		err := node.Ping(ctx)
		if err == nil {
			alive = true
			break
		}
		lastErr = err
		if !rpc.Retryable(err) {
			return nil, fmt.Errorf("baseline liveness probe: %w", err)
		}
		if attempt == th.BaselineAttempts {
			break
		}
		logger.Warn("node not ready for baseline, retrying",
			"attempt", attempt, "max_attempts", th.BaselineAttempts, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if !alive {
		return nil, fmt.Errorf("node unavailable after %d attempts: %w", th.BaselineAttempts, lastErr)
	}

	chain, err := node.GetBlockchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline chain info: %w", err)
	}
	mempool, err := node.GetMempoolInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline mempool info: %w", err)
	}

	hashRate := hashRateFromDifficulty(chain.Difficulty, target)
	if hps, err := node.GetNetworkHashPS(ctx, 120); err == nil && hps > 0 {
		hashRate = hps
	}

	avgInterval := target.Seconds()
	if intervals := sampleBlockIntervals(ctx, node, chain.Blocks, th.IntervalSampleCap, logger); len(intervals) > 0 {
		avgInterval = meanValues(intervals)
	}
	if avgInterval <= 0 {
		avgInterval = target.Seconds()
	}

	return &Baseline{
		AvgHashRate:      hashRate,
		AvgBlockInterval: avgInterval,
		AvgDifficulty:    chain.Difficulty,
		AvgMempoolSize:   float64(mempool.Size),
		ComputedAt:       time.Now().UTC(),
	}, nil
}

// sampleBlockIntervals walks back from tip and returns up to max inter-block
// intervals in seconds, oldest first. Partial results are fine; errors end
// the walk early.
func sampleBlockIntervals(ctx context.Context, node NodeClient, tip int64, max int, logger *slog.Logger) []float64 {
	if max <= 0 || tip < 1 {
		return nil
	}

	start := tip - int64(max)
	if start < 0 {
		start = 0
	}

	var times []int64
	for h := start; h <= tip; h++ {
		hash, err := node.GetBlockHash(ctx, h)
		if err != nil {
			logger.Warn("block interval sampling stopped early", "height", h, "error", err)
			break
		}
		header, err := node.GetBlockHeader(ctx, hash)
		if err != nil {
			logger.Warn("block interval sampling stopped early", "height", h, "error", err)
			break
		}
		times = append(times, header.Time)
	}

	if len(times) < 2 {
		return nil
	}

	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		d := float64(times[i] - times[i-1])
		if d < 0 {
			d = 0 // block timestamps are not strictly monotonic
		}
		intervals = append(intervals, d)
	}
	return intervals
}
