package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	os.Setenv("TEST_ENVOR_KEY", "custom")
	defer os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	os.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvParsers(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "42")
	os.Setenv("TEST_FLOAT_KEY", "2.5")
	os.Setenv("TEST_DUR_KEY", "45s")
	defer func() {
		os.Unsetenv("TEST_INT_KEY")
		os.Unsetenv("TEST_FLOAT_KEY")
		os.Unsetenv("TEST_DUR_KEY")
	}()

	if got := envInt("TEST_INT_KEY", 7); got != 42 {
		t.Errorf("envInt = %d, want 42", got)
	}
	if got := envFloat("TEST_FLOAT_KEY", 1.0); got != 2.5 {
		t.Errorf("envFloat = %v, want 2.5", got)
	}
	if got := envDuration("TEST_DUR_KEY", time.Second); got != 45*time.Second {
		t.Errorf("envDuration = %v, want 45s", got)
	}

	// Garbage values fall back to defaults
	os.Setenv("TEST_INT_KEY", "nope")
	os.Setenv("TEST_FLOAT_KEY", "nope")
	os.Setenv("TEST_DUR_KEY", "nope")
	if got := envInt("TEST_INT_KEY", 7); got != 7 {
		t.Errorf("envInt garbage = %d, want 7", got)
	}
	if got := envFloat("TEST_FLOAT_KEY", 1.5); got != 1.5 {
		t.Errorf("envFloat garbage = %v, want 1.5", got)
	}
	if got := envDuration("TEST_DUR_KEY", time.Minute); got != time.Minute {
		t.Errorf("envDuration garbage = %v, want 1m", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "FRONTEND_ORIGIN", "LOG_LEVEL", "NODE_RPC_URL", "NODE_RPC_USER",
		"NODE_RPC_PASSWORD", "NODE_RPC_TIMEOUT", "MONITORING_INTERVAL",
		"TARGET_BLOCK_INTERVAL", "ALERT_WEBHOOK_URL",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
	} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.MonitoringInterval != 30*time.Second {
		t.Errorf("MonitoringInterval = %v, want 30s", cfg.MonitoringInterval)
	}
	if cfg.TargetBlockInterval != 60*time.Second {
		t.Errorf("TargetBlockInterval = %v, want 60s", cfg.TargetBlockInterval)
	}
	if cfg.NodeRPCPassword != "" {
		t.Errorf("NodeRPCPassword = %q, want empty", cfg.NodeRPCPassword)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("NODE_RPC_URL", "http://node:14022")
	os.Setenv("NODE_RPC_USER", "watcher")
	os.Setenv("MONITORING_INTERVAL", "10s")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("NODE_RPC_URL")
		os.Unsetenv("NODE_RPC_USER")
		os.Unsetenv("MONITORING_INTERVAL")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.NodeRPCURL != "http://node:14022" {
		t.Errorf("NodeRPCURL = %q, want %q", cfg.NodeRPCURL, "http://node:14022")
	}
	if cfg.NodeRPCUser != "watcher" {
		t.Errorf("NodeRPCUser = %q, want %q", cfg.NodeRPCUser, "watcher")
	}
	if cfg.MonitoringInterval != 10*time.Second {
		t.Errorf("MonitoringInterval = %v, want 10s", cfg.MonitoringInterval)
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	if th.LowPeerCount != 50 {
		t.Errorf("LowPeerCount = %d, want 50", th.LowPeerCount)
	}
	if th.HashRateSpike != 5.0 {
		t.Errorf("HashRateSpike = %v, want 5.0", th.HashRateSpike)
	}
	if th.DeepReorgDepth != 6 {
		t.Errorf("DeepReorgDepth = %d, want 6", th.DeepReorgDepth)
	}
	if th.LedgerCapacity != 1000 {
		t.Errorf("LedgerCapacity = %d, want 1000", th.LedgerCapacity)
	}
}

func TestLoadThresholdsOverride(t *testing.T) {
	os.Setenv("WATCHDOG_LOW_PEER_COUNT", "8")
	os.Setenv("WATCHDOG_HASH_RATE_SPIKE", "10")
	defer func() {
		os.Unsetenv("WATCHDOG_LOW_PEER_COUNT")
		os.Unsetenv("WATCHDOG_HASH_RATE_SPIKE")
	}()

	th := LoadThresholds()
	if th.LowPeerCount != 8 {
		t.Errorf("LowPeerCount = %d, want 8", th.LowPeerCount)
	}
	if th.HashRateSpike != 10.0 {
		t.Errorf("HashRateSpike = %v, want 10.0", th.HashRateSpike)
	}
	// Untouched knobs keep their defaults
	if th.MempoolFlood != 10000 {
		t.Errorf("MempoolFlood = %d, want 10000", th.MempoolFlood)
	}
}
