package data

import (
	"context"
	"fmt"
	"time"

	"Proofline/internal/conf"
	"Proofline/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-resty/resty/v2"
)

// AlertWebhook delivers circuit breaker state changes to an operator-defined
// HTTP endpoint. Without a configured endpoint the event is only logged, so
// the notifier is always safe to call.
type AlertWebhook struct {
	client *resty.Client
	url    string
	logger *log.Helper
}

// NewAlertWebhook creates the notifier from the health alert configuration.
func NewAlertWebhook(c *conf.Health, logger log.Logger) *AlertWebhook {
	var (
		url     string
		timeout = 5 * time.Second
	)
	if c != nil && c.Alert != nil {
		url = c.Alert.WebhookUrl
		if c.Alert.Timeout != nil {
			timeout = c.Alert.Timeout.AsDuration()
		}
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Proofline/1.0")

	return &AlertWebhook{
		client: client,
		url:    url,
		logger: log.NewHelper(logger),
	}
}

// NotifyStateChange posts the event to the configured webhook endpoint.
func (w *AlertWebhook) NotifyStateChange(ctx context.Context, event model.BreakerStateChange) error {
	if w.url == "" {
		w.logger.Infow(
			"msg", "circuit breaker state change (webhook not configured)",
			"from", event.From,
			"to", event.To,
			"consecutive_failures", event.ConsecutiveFailures,
		)
		return nil
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(w.url)
	if err != nil {
		w.logger.Errorw(
			"msg", "failed to deliver circuit breaker alert",
			"to", event.To,
			"error", err,
		)
		return fmt.Errorf("deliver breaker alert: %w", err)
	}
	if resp.IsError() {
		w.logger.Errorw(
			"msg", "circuit breaker alert rejected by webhook",
			"to", event.To,
			"status", resp.StatusCode(),
		)
		return fmt.Errorf("deliver breaker alert: webhook returned %d", resp.StatusCode())
	}

	w.logger.Infow(
		"msg", "circuit breaker alert delivered",
		"from", event.From,
		"to", event.To,
	)
	return nil
}
