package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/web3-frozen/chain-watchdog/internal/config"
	"github.com/web3-frozen/chain-watchdog/internal/metrics"
	"github.com/web3-frozen/chain-watchdog/internal/rpc"
)

var (
	ErrAlreadyRunning = errors.New("watchdog already running")
	ErrNotRunning     = errors.New("watchdog not running")
)

// Publisher receives one update event per tick and one alert event per newly
// created alert. Implementations must not block the loop.
type Publisher interface {
	PublishUpdate(u Update)
	PublishAlert(a Alert)
}

// Update is the per-tick push event.
type Update struct {
	OverallStatus Status        `json:"overall_status"`
	RecentMetrics MetricsWindow `json:"recent_metrics"`
	RecentAlerts  []Alert       `json:"recent_alerts"`
}

// MetricsWindow is the short tail of each tracked series, oldest first.
type MetricsWindow struct {
	HashRate    []MetricPoint `json:"hash_rate"`
	Difficulty  []MetricPoint `json:"difficulty"`
	MempoolSize []MetricPoint `json:"mempool_size"`
	PeerCount   []MetricPoint `json:"peer_count"`
}

// StatusReport is the pull-side read model served by the status endpoint.
type StatusReport struct {
	IsMonitoring  bool              `json:"is_monitoring"`
	OverallStatus Status            `json:"overall_status"`
	AlertCount    int               `json:"alert_count"`
	RecentAlerts  []Alert           `json:"recent_alerts"`
	Baseline      *Baseline         `json:"baseline"`
	Thresholds    config.Thresholds `json:"thresholds"`
	LastUpdate    time.Time         `json:"last_update"`
}

type Options struct {
	Interval            time.Duration
	TargetBlockInterval time.Duration
	Thresholds          config.Thresholds
}

// Watchdog owns all monitoring state: baseline, ring buffers, and the alert
// ledger. The evaluation loop is the only writer; handlers read through
// accessor methods and acknowledge through the ledger's own lock.
type Watchdog struct {
	node   NodeClient
	opts   Options
	logger *slog.Logger
	pubs   []Publisher
	ledger *Ledger

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	baseline   *Baseline
	rings      *ringSet
	lastUpdate time.Time

	// interval sampling cursor, touched only by the tick goroutine
	lastSampledHeight int64
	lastBlockTime     int64
}

func New(node NodeClient, opts Options, logger *slog.Logger, pubs ...Publisher) *Watchdog {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.TargetBlockInterval <= 0 {
		opts.TargetBlockInterval = 60 * time.Second
	}
	return &Watchdog{
		node:   node,
		opts:   opts,
		logger: logger.With("component", "watchdog"),
		pubs:   pubs,
		ledger: NewLedger(opts.Thresholds.LedgerCapacity),
		rings:  newRingSet(opts.Thresholds),
	}
}

// Start transitions Stopped -> Running: it computes the baseline (soft-fail)
// and schedules the recurring tick. A restart waits for the previous loop to
// drain before ticking, so there is never more than one tick writer. Starting
// while already running is a no-op reported as ErrAlreadyRunning.
func (w *Watchdog) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("start requested but watchdog already running")
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	prev := w.done
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	metrics.WatchdogRunning.Set(1)
	w.logger.Info("watchdog starting", "interval", w.opts.Interval.String())
	go func() {
		// A stopped loop may still be draining an in-flight tick. The new
		// loop must not touch the rings or the sampling cursor until the old
		// one has fully exited.
		if prev != nil {
			<-prev
		}
		w.run(runCtx, done)
	}()
	return nil
}

// Stop cancels the scheduled loop. A tick already executing completes and its
// results are recorded. Stopping while stopped is a no-op reported as
// ErrNotRunning.
func (w *Watchdog) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.logger.Warn("stop requested but watchdog not running")
		return ErrNotRunning
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	metrics.WatchdogRunning.Set(0)
	w.logger.Info("watchdog stopped")
	return nil
}

// Done returns a channel closed when the loop goroutine exits.
func (w *Watchdog) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.done
}

func (w *Watchdog) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	baseline, err := computeBaseline(ctx, w.node, w.opts.Thresholds, w.opts.TargetBlockInterval, w.logger)
	if err != nil {
		// Soft failure: monitoring continues, ratio detectors skip until a
		// later start recomputes the baseline.
		w.logger.Warn("baseline computation failed, continuing without baseline", "error", err)
	} else {
		w.mu.Lock()
		w.baseline = baseline
		w.mu.Unlock()
		w.logger.Info("baseline computed",
			"avg_hash_rate", baseline.AvgHashRate,
			"avg_block_interval_seconds", baseline.AvgBlockInterval,
			"avg_mempool_size", baseline.AvgMempoolSize)
	}

	w.runTick()

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runTick()
		}
	}
}

// runTick executes one evaluation: fetch, buffer, detect, record, publish.
// The tick context is detached from the loop context so a stop request never
// aborts an in-flight tick.
func (w *Watchdog) runTick() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.Interval)
	defer cancel()

	snap, err := fetchSnapshot(ctx, w.node, w.opts.TargetBlockInterval)
	if err != nil {
		kind := rpc.KindOf(err)
		w.logger.Error("tick fetch failed", "error_kind", kind.String(), "error", err)
		metrics.TickTotal.WithLabelValues("error").Inc()

		alert := w.ledger.Append(Alert{
			Type:     TypeSystemError,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("node data fetch failed: %v", err),
			Data: map[string]any{
				"error_kind": kind.String(),
				"error":      err.Error(),
			},
		})
		w.publishAlert(alert)
		w.publishUpdate()
		return
	}

	intervals := w.sampleNewIntervals(ctx, snap.BlockHeight)

	w.mu.Lock()
	ts := snap.CapturedAt
	w.rings.hashRate.Push(snap.HashRate, ts)
	w.rings.hashRateShort.Push(snap.HashRate, ts)
	w.rings.difficulty.Push(snap.Difficulty, ts)
	w.rings.mempool.Push(float64(snap.MempoolSize), ts)
	w.rings.mempoolShort.Push(float64(snap.MempoolSize), ts)
	w.rings.peers.Push(float64(snap.PeerCount), ts)
	for _, iv := range intervals {
		w.rings.intervals.Push(iv, ts)
	}
	w.lastUpdate = ts
	baseline := w.baseline
	w.mu.Unlock()

	metrics.NodeMetricValue.WithLabelValues("hash_rate").Set(snap.HashRate)
	metrics.NodeMetricValue.WithLabelValues("difficulty").Set(snap.Difficulty)
	metrics.NodeMetricValue.WithLabelValues("mempool_size").Set(float64(snap.MempoolSize))
	metrics.NodeMetricValue.WithLabelValues("peer_count").Set(float64(snap.PeerCount))

	alerts := runDetectors(detectorInput{
		Snap:     snap,
		Baseline: baseline,
		Rings:    w.rings,
		Th:       w.opts.Thresholds,
	}, w.logger)

	for _, a := range alerts {
		stored := w.ledger.Append(a)
		w.logger.Warn("alert raised",
			"alert_id", stored.ID,
			"type", string(stored.Type),
			"severity", string(stored.Severity),
			"message", stored.Message)
		w.publishAlert(stored)
	}

	metrics.TickTotal.WithLabelValues("success").Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.TickLastSuccess.SetToCurrentTime()

	w.publishUpdate()
}

// sampleNewIntervals fetches headers for blocks mined since the previous
// tick and returns their inter-block gaps in seconds. Best-effort: a failed
// header read ends the walk and the detectors see whatever was collected.
func (w *Watchdog) sampleNewIntervals(ctx context.Context, tip int64) []float64 {
	if tip <= w.lastSampledHeight {
		return nil
	}

	window := int64(w.opts.Thresholds.ShortRingCapacity)
	start := w.lastSampledHeight + 1
	if w.lastSampledHeight == 0 || tip-w.lastSampledHeight > window {
		start = tip - window + 1
		if start < 1 {
			start = 1
		}
		w.lastBlockTime = 0
	}

	prev := w.lastBlockTime
	var intervals []float64
	for h := start; h <= tip; h++ {
		hash, err := w.node.GetBlockHash(ctx, h)
		if err != nil {
			w.logger.Warn("interval sampling stopped early", "height", h, "error", err)
			break
		}
		header, err := w.node.GetBlockHeader(ctx, hash)
		if err != nil {
			w.logger.Warn("interval sampling stopped early", "height", h, "error", err)
			break
		}
		if prev > 0 {
			d := float64(header.Time - prev)
			if d < 0 {
				d = 0
			}
			intervals = append(intervals, d)
		}
		prev = header.Time
		w.lastSampledHeight = h
		w.lastBlockTime = header.Time
	}
	return intervals
}

// IsRunning reports the loop state.
func (w *Watchdog) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// OverallStatus is OFFLINE while the loop is stopped, otherwise the highest
// unacknowledged severity among the most recent alerts.
func (w *Watchdog) OverallStatus() Status {
	if !w.IsRunning() {
		return StatusOffline
	}
	sev, found := w.ledger.highestUnacked(w.opts.Thresholds.StatusWindow)
	if !found {
		return StatusSecure
	}
	return statusForSeverity(sev)
}

// Status returns the pull-side read model. Pure and safe to poll.
func (w *Watchdog) Status() StatusReport {
	w.mu.RLock()
	baseline := w.baseline
	lastUpdate := w.lastUpdate
	running := w.running
	w.mu.RUnlock()

	report := StatusReport{
		IsMonitoring:  running,
		OverallStatus: w.OverallStatus(),
		AlertCount:    w.ledger.Len(),
		RecentAlerts:  w.ledger.Recent(w.opts.Thresholds.StatusWindow),
		Baseline:      baseline,
		Thresholds:    w.opts.Thresholds,
		LastUpdate:    lastUpdate,
	}
	return report
}

// Alerts returns up to limit alerts, most-recent-first, optionally filtered.
func (w *Watchdog) Alerts(limit int, severity Severity, acknowledged *bool) []Alert {
	return w.ledger.Filtered(limit, severity, acknowledged)
}

// Acknowledge flips one alert's acknowledged flag, returning whether the id
// was found. Safe to call concurrently with a tick.
func (w *Watchdog) Acknowledge(id int64) bool {
	return w.ledger.Acknowledge(id)
}

func (w *Watchdog) publishAlert(a Alert) {
	for _, p := range w.pubs {
		p.PublishAlert(a)
	}
}

func (w *Watchdog) publishUpdate() {
	w.mu.RLock()
	window := MetricsWindow{
		HashRate:    w.rings.hashRate.Last(w.opts.Thresholds.ShortRingCapacity),
		Difficulty:  w.rings.difficulty.Last(w.opts.Thresholds.ShortRingCapacity),
		MempoolSize: w.rings.mempool.Last(w.opts.Thresholds.ShortRingCapacity),
		PeerCount:   w.rings.peers.Last(w.opts.Thresholds.ShortRingCapacity),
	}
	w.mu.RUnlock()

	u := Update{
		OverallStatus: w.OverallStatus(),
		RecentMetrics: window,
		RecentAlerts:  w.ledger.Recent(w.opts.Thresholds.StatusWindow),
	}
	for _, p := range w.pubs {
		p.PublishUpdate(u)
	}
}
