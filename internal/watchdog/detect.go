package watchdog

import (
	"fmt"
	"log/slog"

	"github.com/web3-frozen/chain-watchdog/internal/config"
)

// ringSet holds the bounded metric series the detectors read. Long rings feed
// baseline-relative trend checks, short rings feed surge detection, and the
// intervals ring holds recent inter-block gaps in seconds.
type ringSet struct {
	hashRate      *MetricRing
	difficulty    *MetricRing
	mempool       *MetricRing
	peers         *MetricRing
	hashRateShort *MetricRing
	mempoolShort  *MetricRing
	intervals     *MetricRing
}

func newRingSet(th config.Thresholds) *ringSet {
	return &ringSet{
		hashRate:      NewMetricRing(th.LongRingCapacity),
		difficulty:    NewMetricRing(th.LongRingCapacity),
		mempool:       NewMetricRing(th.LongRingCapacity),
		peers:         NewMetricRing(th.LongRingCapacity),
		hashRateShort: NewMetricRing(th.ShortRingCapacity),
		mempoolShort:  NewMetricRing(th.ShortRingCapacity),
		intervals:     NewMetricRing(th.ShortRingCapacity),
	}
}

// detectorInput is everything a detector may read. Detectors are pure: they
// never mutate the input and produce zero or one alert.
type detectorInput struct {
	Snap     *Snapshot
	Baseline *Baseline
	Rings    *ringSet
	Th       config.Thresholds
}

// chainGuardsOK reports whether the reorg / 51%-style detectors may run:
// never during initial sync, and only with a computed positive block interval.
func (in detectorInput) chainGuardsOK() bool {
	return !in.Snap.InitialSync && in.Baseline != nil && in.Baseline.AvgBlockInterval > 0
}

type detector func(in detectorInput) *Alert

var detectors = []detector{
	detectLowPeerCount,
	detectMempoolFlood,
	detectHashRateSpike,
	detectHashRateDrop,
	detectDifficultySpike,
	detectDeepReorg,
	detectFrequentReorgs,
	detectHashRateSurge,
	detectBlockTimingBurst,
	detectRapidBlocks,
	detectMempoolVolatility,
}

// runDetectors evaluates every detector against one tick's input. A panic in
// one detector is contained: it is logged and the remaining detectors still run.
func runDetectors(in detectorInput, logger *slog.Logger) []Alert {
	var alerts []Alert
	for _, d := range detectors {
		if a := runOne(d, in, logger); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

func runOne(d detector, in detectorInput, logger *slog.Logger) (alert *Alert) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("detector panicked", "panic", r)
			alert = nil
		}
	}()
	return d(in)
}

func detectLowPeerCount(in detectorInput) *Alert {
	if in.Snap.PeerCount >= in.Th.LowPeerCount {
		return nil
	}
	return &Alert{
		Type:     TypeLowPeerCount,
		Severity: SeverityMedium,
		Message:  fmt.Sprintf("peer count %d below threshold %d", in.Snap.PeerCount, in.Th.LowPeerCount),
		Data: map[string]any{
			"peer_count": in.Snap.PeerCount,
			"threshold":  in.Th.LowPeerCount,
		},
	}
}

func detectMempoolFlood(in detectorInput) *Alert {
	if in.Snap.MempoolSize <= in.Th.MempoolFlood {
		return nil
	}
	return &Alert{
		Type:     TypeMempoolFlood,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("mempool holds %d transactions, flood threshold is %d", in.Snap.MempoolSize, in.Th.MempoolFlood),
		Data: map[string]any{
			"mempool_size":  in.Snap.MempoolSize,
			"mempool_bytes": in.Snap.MempoolBytes,
			"threshold":     in.Th.MempoolFlood,
		},
	}
}

func detectHashRateSpike(in detectorInput) *Alert {
	if in.Baseline == nil || in.Baseline.AvgHashRate <= 0 {
		return nil
	}
	ratio := in.Snap.HashRate / in.Baseline.AvgHashRate
	if ratio <= in.Th.HashRateSpike {
		return nil
	}
	return &Alert{
		Type:     TypeHashRateSpike,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("network hash rate is %.1fx the baseline, possible incoming majority attack", ratio),
		Data: map[string]any{
			"current_hash_rate":  in.Snap.HashRate,
			"baseline_hash_rate": in.Baseline.AvgHashRate,
			"ratio":              ratio,
		},
	}
}

func detectHashRateDrop(in detectorInput) *Alert {
	if in.Baseline == nil || in.Baseline.AvgHashRate <= 0 {
		return nil
	}
	ratio := in.Snap.HashRate / in.Baseline.AvgHashRate
	if ratio >= in.Th.HashRateDrop {
		return nil
	}
	return &Alert{
		Type:     TypeHashRateDrop,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("network hash rate fell to %.0f%% of the baseline", ratio*100),
		Data: map[string]any{
			"current_hash_rate":  in.Snap.HashRate,
			"baseline_hash_rate": in.Baseline.AvgHashRate,
			"ratio":              ratio,
		},
	}
}

func detectDifficultySpike(in detectorInput) *Alert {
	if in.Baseline == nil || in.Baseline.AvgDifficulty <= 0 {
		return nil
	}
	ratio := in.Snap.Difficulty / in.Baseline.AvgDifficulty
	if ratio <= in.Th.DifficultySpike {
		return nil
	}
	return &Alert{
		Type:     TypeDifficultySpike,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("difficulty is %.1fx the baseline", ratio),
		Data: map[string]any{
			"current_difficulty":  in.Snap.Difficulty,
			"baseline_difficulty": in.Baseline.AvgDifficulty,
			"ratio":               ratio,
		},
	}
}

func detectDeepReorg(in detectorInput) *Alert {
	if !in.chainGuardsOK() {
		return nil
	}
	for _, tip := range in.Snap.ChainTips {
		if tip.Status != "valid-fork" || tip.BranchLen < in.Th.DeepReorgDepth {
			continue
		}
		return &Alert{
			Type:     TypeDeepReorg,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("chain fork %d blocks deep detected, consistent with a 51%% attack", tip.BranchLen),
			Data: map[string]any{
				"fork_depth":  tip.BranchLen,
				"fork_hash":   tip.Hash,
				"fork_height": tip.Height,
			},
		}
	}
	return nil
}

func detectFrequentReorgs(in detectorInput) *Alert {
	if !in.chainGuardsOK() {
		return nil
	}
	count := 0
	for _, tip := range in.Snap.ChainTips {
		if tip.Status == "valid-fork" && tip.BranchLen >= in.Th.ShallowReorgDepth {
			count++
		}
	}
	if count < in.Th.ShallowReorgCount {
		return nil
	}
	return &Alert{
		Type:     TypeFrequentReorgs,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("%d concurrent chain forks of depth >= %d", count, in.Th.ShallowReorgDepth),
		Data: map[string]any{
			"fork_count": count,
			"min_depth":  in.Th.ShallowReorgDepth,
		},
	}
}

func detectHashRateSurge(in detectorInput) *Alert {
	if !in.chainGuardsOK() {
		return nil
	}
	points := in.Rings.hashRateShort.Points()
	if len(points) < in.Th.SurgeMinSamples {
		return nil
	}
	split := len(points) - in.Th.SurgeWindow
	earlier := mean(points[:split])
	recent := mean(points[split:])
	if earlier <= 0 || recent <= in.Th.SurgeMultiplier*earlier {
		return nil
	}
	return &Alert{
		Type:     TypeHashRateSurge,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("hash rate surged to %.1fx its short-term average", recent/earlier),
		Data: map[string]any{
			"recent_avg":  recent,
			"earlier_avg": earlier,
			"ratio":       recent / earlier,
		},
	}
}

func detectBlockTimingBurst(in detectorInput) *Alert {
	if !in.chainGuardsOK() {
		return nil
	}
	points := in.Rings.intervals.Points()
	if len(points) < in.Th.BurstWindow {
		return nil
	}
	maxGap := 0.0
	for _, p := range points {
		if p.Value > maxGap {
			maxGap = p.Value
		}
	}
	recent := mean(points[len(points)-in.Th.BurstWindow:])
	if maxGap <= in.Th.MaxBlockGapSeconds || recent >= in.Th.RapidBlockSeconds {
		return nil
	}
	return &Alert{
		Type:     TypeBlockTimingAnomaly,
		Severity: SeverityCritical,
		Message: fmt.Sprintf("burst of fast blocks (avg %.0fs) after a %.0fs gap, consistent with a privately mined chain being released",
			recent, maxGap),
		Data: map[string]any{
			"max_gap_seconds":    maxGap,
			"recent_avg_seconds": recent,
		},
	}
}

func detectRapidBlocks(in detectorInput) *Alert {
	if !in.chainGuardsOK() {
		return nil
	}
	points := in.Rings.intervals.Points()
	if len(points) < in.Th.BurstWindow {
		return nil
	}
	maxGap := 0.0
	for _, p := range points {
		if p.Value > maxGap {
			maxGap = p.Value
		}
	}
	// The burst-after-gap pattern is the timing detector's signal.
	if maxGap > in.Th.MaxBlockGapSeconds {
		return nil
	}
	avg := mean(points)
	if avg >= in.Th.RapidBlockSeconds {
		return nil
	}
	return &Alert{
		Type:     TypeRapidBlocks,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("blocks arriving every %.0fs on average, well under the %.0fs target", avg, in.Baseline.AvgBlockInterval),
		Data: map[string]any{
			"avg_interval_seconds":      avg,
			"baseline_interval_seconds": in.Baseline.AvgBlockInterval,
		},
	}
}

func detectMempoolVolatility(in detectorInput) *Alert {
	points := in.Rings.mempoolShort.Points()
	if len(points) <= in.Th.VolatilityWindow {
		return nil
	}
	split := len(points) - in.Th.VolatilityWindow
	earlier := mean(points[:split])
	recent := mean(points[split:])
	if earlier <= in.Th.VolatilityFloor || recent <= in.Th.VolatilityFactor*earlier {
		return nil
	}
	return &Alert{
		Type:     TypeMempoolVolatility,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("mempool size jumped to %.1fx its recent average", recent/earlier),
		Data: map[string]any{
			"recent_avg":  recent,
			"earlier_avg": earlier,
			"ratio":       recent / earlier,
		},
	}
}
