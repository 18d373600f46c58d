// internal/notify/webhook.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notifier delivers operator alerts.
type Notifier interface {
	Post(ctx context.Context, message string) error
}

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notify: webhook returned %d: %s", e.Status, e.Body)
}

// Webhook posts {"text": ...} to an incoming-webhook URL (Slack format).
type Webhook struct {
	url    string
	userID string
	hc     *http.Client
}

type Config struct {
	URL     string
	UserID  string // tagged as <@id> when set
	Timeout time.Duration
}

func NewWebhook(cfg Config) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New("notify: url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Webhook{
		url:    cfg.URL,
		userID: cfg.UserID,
		hc:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type payload struct {
	Text string `json:"text"`
}

// Text is the message body actually sent, with the user tag applied.
func (w *Webhook) Text(message string) string {
	if w.userID == "" {
		return message
	}
	return fmt.Sprintf("<@%s>: %s", w.userID, message)
}

func (w *Webhook) Post(ctx context.Context, message string) error {
	body, err := json.Marshal(payload{Text: w.Text(message)})
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.hc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
