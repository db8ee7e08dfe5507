// Package hubspot keeps CRM contacts in sync with questionnaire leads.
package hubspot

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

const Name = "hubspot"

// Contact maps to HubSpot contact properties.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	State     string
	// custom properties, e.g. foreclosure_risk_score
	Properties map[string]string
}

func (c Contact) properties() map[string]string {
	props := map[string]string{"email": c.Email}
	set := func(k, v string) {
		if v != "" {
			props[k] = v
		}
	}
	set("firstname", c.FirstName)
	set("lastname", c.LastName)
	set("phone", c.Phone)
	set("state", c.State)
	for k, v := range c.Properties {
		props[k] = v
	}
	return props
}

type Client struct {
	*integration.BaseClient
}

func NewClient(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Client {
	opts = append([]integration.Option{integration.WithAuth(integration.BearerAuth(cfg.APIKey))}, opts...)
	return &Client{BaseClient: integration.NewBaseClient(Name, cfg, logger, opts...)}
}

// UpsertContact searches by email and patches the existing contact or creates a new one.
// Returns the contact id and whether it was created.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, bool, error) {
	if contact.Email == "" {
		return "", false, errors.New("hubspot: contact email is required")
	}

	id, err := c.findByEmail(ctx, contact.Email)
	if err != nil {
		return "", false, err
	}

	props := map[string]any{"properties": contact.properties()}
	if id != "" {
		req, err := integration.JSONRequest(http.MethodPatch, "/crm/v3/objects/contacts/"+id, props)
		if err != nil {
			return "", false, err
		}
		if _, err := c.Do(ctx, "update_contact", req); err != nil {
			return "", false, fmt.Errorf("update contact: %w", err)
		}
		return id, false, nil
	}

	req, err := integration.JSONRequest(http.MethodPost, "/crm/v3/objects/contacts", props)
	if err != nil {
		return "", false, err
	}
	body, err := c.Do(ctx, "create_contact", req)
	if err != nil {
		return "", false, fmt.Errorf("create contact: %w", err)
	}
	return gjson.GetBytes(body, "id").String(), true, nil
}

func (c *Client) findByEmail(ctx context.Context, email string) (string, error) {
	req, err := integration.JSONRequest(http.MethodPost, "/crm/v3/objects/contacts/search", map[string]any{
		"filterGroups": []any{
			map[string]any{
				"filters": []any{
					map[string]string{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
		"limit": 1,
	})
	if err != nil {
		return "", err
	}
	body, err := c.Do(ctx, "search_contact", req)
	if err != nil {
		return "", fmt.Errorf("search contact: %w", err)
	}
	return gjson.GetBytes(body, "results.0.id").String(), nil
}
