// Package mailerlite wraps the marketing email API used for follow-ups and lead nurturing.
package mailerlite

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

const Name = "mailerlite"

// Email is one transactional message.
type Email struct {
	FromEmail string
	FromName  string
	To        string
	ToName    string
	Subject   string
	HTML      string
	Text      string
	Tags      []string
}

type Client struct {
	*integration.BaseClient
}

func NewClient(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Client {
	opts = append([]integration.Option{integration.WithAuth(integration.BearerAuth(cfg.APIKey))}, opts...)
	return &Client{BaseClient: integration.NewBaseClient(Name, cfg, logger, opts...)}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendEmail posts a single message and returns the provider message id (may be empty).
func (c *Client) SendEmail(ctx context.Context, e Email) (string, error) {
	if e.To == "" {
		return "", errors.New("mailerlite: recipient is required")
	}
	if e.HTML == "" && e.Text == "" {
		return "", errors.New("mailerlite: email body is required")
	}

	req, err := integration.JSONRequest(http.MethodPost, "/email", map[string]any{
		"from":    address{Email: e.FromEmail, Name: e.FromName},
		"to":      []address{{Email: e.To, Name: e.ToName}},
		"subject": e.Subject,
		"html":    e.HTML,
		"text":    e.Text,
		"tags":    e.Tags,
	})
	if err != nil {
		return "", err
	}

	body, err := c.Do(ctx, "send_email", req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return gjson.GetBytes(body, "data.id").String(), nil
}

// UpsertSubscriber creates or updates a subscriber and adds them to groups.
func (c *Client) UpsertSubscriber(ctx context.Context, email, name string, groups []string) (string, error) {
	if email == "" {
		return "", errors.New("mailerlite: subscriber email is required")
	}
	payload := map[string]any{"email": email}
	if name != "" {
		payload["fields"] = map[string]string{"name": name}
	}
	if len(groups) > 0 {
		payload["groups"] = groups
	}

	req, err := integration.JSONRequest(http.MethodPost, "/subscribers", payload)
	if err != nil {
		return "", err
	}
	body, err := c.Do(ctx, "upsert_subscriber", req)
	if err != nil {
		return "", fmt.Errorf("upsert subscriber: %w", err)
	}
	return gjson.GetBytes(body, "data.id").String(), nil
}
