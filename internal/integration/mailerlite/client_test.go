package mailerlite

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

func TestSendEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "lead@example.com", gjson.GetBytes(body, "to.0.email").String())
		assert.Equal(t, "Checking in", gjson.GetBytes(body, "subject").String())
		w.Write([]byte(`{"data":{"id":"msg-1"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.VendorConfig{BaseURL: srv.URL, APIKey: "key"}, nil)
	id, err := c.SendEmail(context.Background(), Email{
		FromEmail: "help@example.com",
		To:        "lead@example.com",
		Subject:   "Checking in",
		Text:      "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}

func TestSendEmail_Validation(t *testing.T) {
	c := NewClient(config.VendorConfig{BaseURL: "http://unused.invalid"}, nil)
	_, err := c.SendEmail(context.Background(), Email{Subject: "x", Text: "y"})
	assert.Error(t, err)
	_, err = c.SendEmail(context.Background(), Email{To: "a@b.c"})
	assert.Error(t, err)
}

func TestUpsertSubscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscribers", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Pat", gjson.GetBytes(body, "fields.name").String())
		assert.Equal(t, "leads", gjson.GetBytes(body, "groups.0").String())
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"42"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.VendorConfig{BaseURL: srv.URL}, nil)
	id, err := c.UpsertSubscriber(context.Background(), "pat@example.com", "Pat", []string{"leads"})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}
