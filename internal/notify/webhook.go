// Package notify tells downstream automation how many users were written.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

// DefaultTimeout bounds a single webhook call.
const DefaultTimeout = 10 * time.Second

// HTTPDoer executes HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts ingestion counts to an automation endpoint. Delivery is a
// single attempt.
type Webhook struct {
	url     string
	timeout time.Duration
	client  HTTPDoer
}

type payload struct {
	Inserted int64 `json:"inserted"`
}

// NewWebhook creates a Webhook for url. An empty url disables it. A zero
// timeout means DefaultTimeout; a nil client means http.DefaultClient.
func NewWebhook(url string, timeout time.Duration, client HTTPDoer) *Webhook {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, timeout: timeout, client: client}
}

// Enabled reports whether a target URL is configured.
func (w *Webhook) Enabled() bool { return w.url != "" }

// Notify sends {"inserted": n}. Failures are logged and returned wrapping
// domain.ErrNotification.
func (w *Webhook) Notify(ctx context.Context, inserted int64) error {
	if !w.Enabled() {
		return nil
	}
	if err := w.post(ctx, inserted); err != nil {
		logger.Warn("webhook notification failed", "inserted", inserted, "error", err)
		return err
	}
	logger.Debug("webhook notified", "inserted", inserted)
	return nil
}

func (w *Webhook) post(ctx context.Context, inserted int64) error {
	body, err := json.Marshal(payload{Inserted: inserted})
	if err != nil {
		return fmt.Errorf("%w: encode payload: %w", domain.ErrNotification, err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post: %w", domain.ErrNotification, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", domain.ErrNotification, resp.StatusCode)
	}
	return nil
}
