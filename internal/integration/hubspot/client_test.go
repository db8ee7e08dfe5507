package hubspot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"foreclosure-assist/pkg/config"
)

func TestUpsertContact_Creates(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case r.URL.Path == "/crm/v3/objects/contacts/search":
			assert.Equal(t, "a@b.co", gjson.GetBytes(body, "filterGroups.0.filters.0.value").String())
			w.Write([]byte(`{"total":0,"results":[]}`))
		case r.URL.Path == "/crm/v3/objects/contacts" && r.Method == http.MethodPost:
			created = true
			assert.Equal(t, "72", gjson.GetBytes(body, "properties.foreclosure_risk_score").String())
			assert.Equal(t, "Ann", gjson.GetBytes(body, "properties.firstname").String())
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"501"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(config.VendorConfig{BaseURL: srv.URL, APIKey: "pat"}, nil)
	id, isNew, err := c.UpsertContact(context.Background(), Contact{
		Email:      "a@b.co",
		FirstName:  "Ann",
		Properties: map[string]string{"foreclosure_risk_score": "72"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, isNew)
	assert.Equal(t, "501", id)
}

func TestUpsertContact_Updates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crm/v3/objects/contacts/search":
			w.Write([]byte(`{"total":1,"results":[{"id":"77"}]}`))
		case "/crm/v3/objects/contacts/77":
			assert.Equal(t, http.MethodPatch, r.Method)
			w.Write([]byte(`{"id":"77"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(config.VendorConfig{BaseURL: srv.URL}, nil)
	id, isNew, err := c.UpsertContact(context.Background(), Contact{Email: "a@b.co"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "77", id)
}
