package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	FrontendOrigin string
	LogLevel       string

	NodeRPCURL      string
	NodeRPCUser     string
	NodeRPCPassword string
	RPCTimeout      time.Duration

	MonitoringInterval  time.Duration
	TargetBlockInterval time.Duration

	AlertWebhookURL string
}

func Load() Config {
	cfg := Config{
		Port:                envOr("PORT", "8080"),
		FrontendOrigin:      envOr("FRONTEND_ORIGIN", "*"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		NodeRPCURL:          envOr("NODE_RPC_URL", "http://127.0.0.1:14022"),
		NodeRPCUser:         os.Getenv("NODE_RPC_USER"),
		NodeRPCPassword:     os.Getenv("NODE_RPC_PASSWORD"),
		RPCTimeout:          envDuration("NODE_RPC_TIMEOUT", 15*time.Second),
		MonitoringInterval:  envDuration("MONITORING_INTERVAL", 30*time.Second),
		TargetBlockInterval: envDuration("TARGET_BLOCK_INTERVAL", 60*time.Second),
		AlertWebhookURL:     os.Getenv("ALERT_WEBHOOK_URL"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"NODE_RPC_USER":     &cfg.NodeRPCUser,
		"NODE_RPC_PASSWORD": &cfg.NodeRPCPassword,
		"ALERT_WEBHOOK_URL": &cfg.AlertWebhookURL,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
