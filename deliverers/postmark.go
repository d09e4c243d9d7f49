package deliverers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/mickamy/maildrain"
)

// PostmarkConfig holds Postmark API settings.
type PostmarkConfig struct {
	// ServerToken authorizes sending; required.
	ServerToken string
	// AccountToken is only needed for account-level API calls.
	AccountToken string
	// MessageStream selects a non-default stream such as "outbound" or a broadcast stream.
	MessageStream string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Postmark delivers queue items through Postmark's transactional API.
type Postmark struct {
	client *postmark.Client
	stream string
}

// NewPostmark validates cfg and builds the Postmark client once.
func NewPostmark(cfg PostmarkConfig) (*Postmark, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	client := postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		client.HTTPClient = cfg.HTTPClient
	}
	return &Postmark{client: client, stream: cfg.MessageStream}, nil
}

// Deliver implements maildrain.Deliverer.
func (p *Postmark) Deliver(ctx context.Context, item maildrain.QueueItem) (maildrain.DeliveryResult, error) {
	if err := item.Validate(); err != nil {
		return maildrain.DeliveryResult{}, errors.Join(ErrInvalidItem, err)
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:          item.From(),
		To:            strings.Join(item.RecipientList(), ","),
		Subject:       item.Subject,
		TextBody:      item.PlainBody,
		HTMLBody:      item.HTMLBody,
		MessageStream: p.stream,
	})
	if resp.ErrorCode > 0 {
		return maildrain.Rejected(fmt.Sprintf("postmark error %d: %s", resp.ErrorCode, resp.Message)), nil
	}
	if err != nil {
		return maildrain.DeliveryResult{}, fmt.Errorf("postmark send: %w", err)
	}
	return maildrain.Accepted(), nil
}
