package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/keeperpay/keeperpay/internal/logger"
	"github.com/keeperpay/keeperpay/internal/provider"
	"github.com/keeperpay/keeperpay/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultNotifyTimeout = 10 * time.Second

// Consumer handles queued payment notification tasks.
type Consumer struct {
	*provider.Container

	httpClient *http.Client
}

// NewConsumer creates a consumer around the shared container.
func NewConsumer(c *provider.Container) *Consumer {
	timeout := defaultNotifyTimeout
	if c != nil && c.Config != nil && c.Config.Notify.TimeoutMS > 0 {
		timeout = time.Duration(c.Config.Notify.TimeoutMS) * time.Millisecond
	}
	return &Consumer{
		Container:  c,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Register binds the task handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentSucceeded, c.handlePaymentSucceeded)
}

func (c *Consumer) handlePaymentSucceeded(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_succeeded_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentSucceededPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_succeeded_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.PaymentID) == "" {
		logger.Debugw("worker_payment_succeeded_skip_invalid_payload")
		return nil
	}

	notifyURL := ""
	if c.Config != nil {
		notifyURL = strings.TrimSpace(c.Config.Notify.URL)
	}
	if notifyURL == "" {
		logger.Debugw("worker_payment_succeeded_skip_no_notify_url", "payment_id", payload.PaymentID)
		return nil
	}

	if err := c.deliver(ctx, notifyURL, payload); err != nil {
		logger.Warnw("worker_payment_succeeded_deliver_failed",
			"payment_id", payload.PaymentID,
			"reservation_id", payload.ReservationID,
			"notify_url", notifyURL,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_payment_succeeded_delivered",
		"payment_id", payload.PaymentID,
		"reservation_id", payload.ReservationID,
	)
	return nil
}

// deliver posts the notification JSON to the downstream endpoint. Any non-2xx
// reply is an error so asynq retries the task.
func (c *Consumer) deliver(ctx context.Context, notifyURL string, payload queue.PaymentSucceededPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: defaultNotifyTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify endpoint returned %d", resp.StatusCode)
	}
	return nil
}
