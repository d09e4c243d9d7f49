package deliverers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mickamy/maildrain"
)

// Webhook posts queue items to an HTTP endpoint that performs the actual send.
type Webhook struct {
	client *http.Client
	target string
}

// NewWebhook creates a Webhook deliverer. A nil client gets a 10 second timeout.
func NewWebhook(target string, client *http.Client) (*Webhook, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: webhook url is required", ErrInvalidConfig)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{target: target, client: client}, nil
}

// webhookPayload is the JSON body sent for every item.
type webhookPayload struct {
	ID        int64    `json:"id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	PlainBody string   `json:"plain_body"`
	HTMLBody  string   `json:"html_body"`
}

func newWebhookPayload(item maildrain.QueueItem) webhookPayload {
	return webhookPayload{
		ID:        item.ID,
		From:      item.From(),
		To:        item.RecipientList(),
		Subject:   item.Subject,
		PlainBody: item.PlainBody,
		HTMLBody:  item.HTMLBody,
	}
}

// Deliver implements maildrain.Deliverer. Any 2xx answer counts as accepted.
func (w *Webhook) Deliver(ctx context.Context, item maildrain.QueueItem) (maildrain.DeliveryResult, error) {
	body, err := json.Marshal(newWebhookPayload(item))
	if err != nil {
		return maildrain.DeliveryResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.target, bytes.NewReader(body))
	if err != nil {
		return maildrain.DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return maildrain.DeliveryResult{}, err
	}
	defer func(Body io.ReadCloser) { _ = Body.Close() }(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return maildrain.Rejected("webhook responded with " + resp.Status), nil
	}
	return maildrain.Accepted(), nil
}
