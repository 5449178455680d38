package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/web3-frozen/chain-watchdog/internal/metrics"
	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

// Notifier delivers alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, alert watchdog.Alert) error
}

// WebhookNotifier POSTs each alert as JSON to a configured URL. Delivery
// failures are the receiver's problem, never the evaluation loop's.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook"),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert watchdog.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// PublishAlert implements watchdog.Publisher.
func (n *WebhookNotifier) PublishAlert(a watchdog.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
	defer cancel()

	if err := n.Notify(ctx, a); err != nil {
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		n.logger.Error("webhook delivery failed", "alert_id", a.ID, "error", err)
		return
	}
	metrics.WebhookDeliveries.WithLabelValues("success").Inc()
	n.logger.Info("webhook delivered", "alert_id", a.ID, "type", string(a.Type))
}

// PublishUpdate implements watchdog.Publisher. Webhooks carry alerts only.
func (n *WebhookNotifier) PublishUpdate(watchdog.Update) {}

var _ watchdog.Publisher = (*WebhookNotifier)(nil)
var _ Notifier = (*WebhookNotifier)(nil)
