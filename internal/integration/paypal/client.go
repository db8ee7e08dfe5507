// Package paypal creates and captures Orders v2 payments.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

const Name = "paypal"

// tokens are refreshed this long before PayPal says they expire
const tokenSkew = time.Minute

type Order struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url"`
}

type Capture struct {
	OrderID     string `json:"order_id"`
	CaptureID   string `json:"capture_id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Client uses APIKey as the OAuth client id and Secret as the client secret.
type Client struct {
	*integration.BaseClient
	oauth *integration.BaseClient
	now   func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewClient(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Client {
	c := &Client{now: time.Now}
	oauthOpts := append([]integration.Option{integration.WithAuth(integration.BasicAuth(cfg.APIKey, cfg.Secret))}, opts...)
	c.oauth = integration.NewBaseClient(Name+"_oauth", cfg, logger, oauthOpts...)
	apiOpts := append([]integration.Option{integration.WithAuth(c.authorize)}, opts...)
	c.BaseClient = integration.NewBaseClient(Name, cfg, logger, apiOpts...)
	return c
}

func (c *Client) authorize(ctx context.Context, r *http.Request) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// accessToken returns the cached token or fetches a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	body, err := c.oauth.Do(ctx, "oauth_token", integration.FormRequest(http.MethodPost, "/v1/oauth2/token", form))
	if err != nil {
		return "", fmt.Errorf("paypal oauth: %w", err)
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", errors.New("paypal oauth: empty access token")
	}
	ttl := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second
	c.token = token
	c.expiresAt = c.now().Add(ttl - tokenSkew)
	return token, nil
}

// CreateOrder creates a CAPTURE order for amountCents in currency. referenceID is echoed back on capture.
func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, referenceID string) (*Order, error) {
	if amountCents <= 0 {
		return nil, errors.New("paypal: amount must be positive")
	}
	if currency == "" {
		currency = "USD"
	}

	req, err := integration.JSONRequest(http.MethodPost, "/v2/checkout/orders", map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []any{
			map[string]any{
				"reference_id": referenceID,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         FormatAmount(amountCents),
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"PayPal-Request-Id": {uuid.NewString()}}

	body, err := c.Do(ctx, "create_order", req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	order := &Order{
		ID:     gjson.GetBytes(body, "id").String(),
		Status: gjson.GetBytes(body, "status").String(),
	}
	for _, link := range gjson.GetBytes(body, "links").Array() {
		if rel := link.Get("rel").String(); rel == "approve" || rel == "payer-action" {
			order.ApproveURL = link.Get("href").String()
			break
		}
	}
	return order, nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	if orderID == "" {
		return nil, errors.New("paypal: order id is required")
	}
	req, err := integration.JSONRequest(http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", map[string]any{})
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"PayPal-Request-Id": {"capture-" + orderID}}

	body, err := c.Do(ctx, "capture_order", req)
	if err != nil {
		return nil, fmt.Errorf("capture order: %w", err)
	}

	unit := gjson.GetBytes(body, "purchase_units.0")
	capture := unit.Get("payments.captures.0")
	return &Capture{
		OrderID:     gjson.GetBytes(body, "id").String(),
		Status:      gjson.GetBytes(body, "status").String(),
		ReferenceID: unit.Get("reference_id").String(),
		CaptureID:   capture.Get("id").String(),
		AmountCents: ParseAmount(capture.Get("amount.value").String()),
		Currency:    capture.Get("amount.currency_code").String(),
	}, nil
}

// FormatAmount renders cents as PayPal's decimal string.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParseAmount parses "12.34" into cents; malformed input yields 0.
func ParseAmount(s string) int64 {
	var whole, frac int64
	var fracDigits int
	seenDot := false
	for _, r := range s {
		switch {
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
			if seenDot {
				if fracDigits < 2 {
					frac = frac*10 + int64(r-'0')
					fracDigits++
				}
			} else {
				whole = whole*10 + int64(r-'0')
			}
		default:
			return 0
		}
	}
	if fracDigits == 1 {
		frac *= 10
	}
	return whole*100 + frac
}
