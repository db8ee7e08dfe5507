// Package stripe creates Checkout sessions and verifies webhook signatures.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

const Name = "stripe"

// CheckoutRequest describes a one-line Checkout session.
type CheckoutRequest struct {
	PriceID           string
	Mode              string // subscription / payment
	Quantity          int
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
	// IdempotencyKey is generated when empty.
	IdempotencyKey string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client struct {
	*integration.BaseClient
}

// NewClient authenticates with the secret key in APIKey.
func NewClient(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Client {
	opts = append([]integration.Option{integration.WithAuth(integration.BearerAuth(cfg.APIKey))}, opts...)
	return &Client{BaseClient: integration.NewBaseClient(Name, cfg, logger, opts...)}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutRequest) (*Session, error) {
	if in.PriceID == "" {
		return nil, errors.New("stripe: price id is required")
	}
	if in.SuccessURL == "" || in.CancelURL == "" {
		return nil, errors.New("stripe: success and cancel urls are required")
	}
	mode := in.Mode
	if mode == "" {
		mode = "subscription"
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	form := url.Values{
		"mode":                    {mode},
		"success_url":             {in.SuccessURL},
		"cancel_url":              {in.CancelURL},
		"line_items[0][price]":    {in.PriceID},
		"line_items[0][quantity]": {strconv.Itoa(qty)},
	}
	if in.CustomerEmail != "" {
		form.Set("customer_email", in.CustomerEmail)
	}
	if in.ClientReferenceID != "" {
		form.Set("client_reference_id", in.ClientReferenceID)
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	req := integration.FormRequest(http.MethodPost, "/checkout/sessions", form)
	req.Header = http.Header{"Idempotency-Key": {key}}

	body, err := c.Do(ctx, "create_checkout_session", req)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{
		ID:  gjson.GetBytes(body, "id").String(),
		URL: gjson.GetBytes(body, "url").String(),
	}, nil
}
