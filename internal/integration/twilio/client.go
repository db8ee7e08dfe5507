// Package twilio sends SMS through the Twilio Messages API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

const Name = "twilio"

type Client struct {
	*integration.BaseClient
	accountSID string
	from       string
}

// NewClient uses AccountID as the account SID, APIKey as the auth token and From as the sender number.
func NewClient(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Client {
	opts = append([]integration.Option{integration.WithAuth(integration.BasicAuth(cfg.AccountID, cfg.APIKey))}, opts...)
	return &Client{
		BaseClient: integration.NewBaseClient(Name, cfg, logger, opts...),
		accountSID: cfg.AccountID,
		from:       cfg.From,
	}
}

// SendSMS returns the message SID.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	if to == "" || body == "" {
		return "", errors.New("twilio: recipient and body are required")
	}
	if c.accountSID == "" {
		return "", errors.New("twilio: account sid not configured")
	}

	form := url.Values{
		"To":   {to},
		"From": {c.from},
		"Body": {body},
	}
	path := fmt.Sprintf("/Accounts/%s/Messages.json", url.PathEscape(c.accountSID))
	resp, err := c.Do(ctx, "send_sms", integration.FormRequest(http.MethodPost, path, form))
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	return gjson.GetBytes(resp, "sid").String(), nil
}
