package config

// Thresholds carries every detector knob. One consistent set of defaults is
// used; individual values can be overridden through environment variables.
type Thresholds struct {
	LowPeerCount       int     `json:"low_peer_count"`
	MempoolFlood       int64   `json:"mempool_flood"`
	HashRateSpike      float64 `json:"hash_rate_spike"`
	HashRateDrop       float64 `json:"hash_rate_drop"`
	DifficultySpike    float64 `json:"difficulty_spike"`
	DeepReorgDepth     int     `json:"deep_reorg_depth"`
	ShallowReorgDepth  int     `json:"shallow_reorg_depth"`
	ShallowReorgCount  int     `json:"shallow_reorg_count"`
	SurgeWindow        int     `json:"surge_window"`
	SurgeMinSamples    int     `json:"surge_min_samples"`
	SurgeMultiplier    float64 `json:"surge_multiplier"`
	MaxBlockGapSeconds float64 `json:"max_block_gap_seconds"`
	RapidBlockSeconds  float64 `json:"rapid_block_seconds"`
	BurstWindow        int     `json:"burst_window"`
	VolatilityWindow   int     `json:"volatility_window"`
	VolatilityFactor   float64 `json:"volatility_factor"`
	VolatilityFloor    float64 `json:"volatility_floor"`

	BaselineAttempts  int `json:"baseline_attempts"`
	BaselineDelaySec  int `json:"baseline_delay_seconds"`
	IntervalSampleCap int `json:"interval_sample_cap"`
	LongRingCapacity  int `json:"long_ring_capacity"`
	ShortRingCapacity int `json:"short_ring_capacity"`
	LedgerCapacity    int `json:"ledger_capacity"`
	StatusWindow      int `json:"status_window"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LowPeerCount:       50,
		MempoolFlood:       10000,
		HashRateSpike:      5.0,
		HashRateDrop:       0.3,
		DifficultySpike:    3.0,
		DeepReorgDepth:     6,
		ShallowReorgDepth:  2,
		ShallowReorgCount:  3,
		SurgeWindow:        3,
		SurgeMinSamples:    5,
		SurgeMultiplier:    3.0,
		MaxBlockGapSeconds: 1200,
		RapidBlockSeconds:  30,
		BurstWindow:        5,
		VolatilityWindow:   2,
		VolatilityFactor:   5.0,
		VolatilityFloor:    10,
		BaselineAttempts:   10,
		BaselineDelaySec:   3,
		IntervalSampleCap:  10,
		LongRingCapacity:   100,
		ShortRingCapacity:  20,
		LedgerCapacity:     1000,
		StatusWindow:       10,
	}
}

// LoadThresholds returns the defaults with any WATCHDOG_* env overrides applied.
func LoadThresholds() Thresholds {
	t := DefaultThresholds()
	t.LowPeerCount = envInt("WATCHDOG_LOW_PEER_COUNT", t.LowPeerCount)
	t.MempoolFlood = int64(envInt("WATCHDOG_MEMPOOL_FLOOD", int(t.MempoolFlood)))
	t.HashRateSpike = envFloat("WATCHDOG_HASH_RATE_SPIKE", t.HashRateSpike)
	t.HashRateDrop = envFloat("WATCHDOG_HASH_RATE_DROP", t.HashRateDrop)
	t.DifficultySpike = envFloat("WATCHDOG_DIFFICULTY_SPIKE", t.DifficultySpike)
	t.DeepReorgDepth = envInt("WATCHDOG_DEEP_REORG_DEPTH", t.DeepReorgDepth)
	t.LedgerCapacity = envInt("WATCHDOG_LEDGER_CAPACITY", t.LedgerCapacity)
	t.BaselineAttempts = envInt("WATCHDOG_BASELINE_ATTEMPTS", t.BaselineAttempts)
	return t
}
