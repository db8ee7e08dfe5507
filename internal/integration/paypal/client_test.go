package paypal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"foreclosure-assist/pkg/config"
)

func newServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			atomic.AddInt32(tokenCalls, 1)
			user, pass, _ := r.BasicAuth()
			assert.Equal(t, "client", user)
			assert.Equal(t, "secret", pass)
			w.Write([]byte(`{"access_token":"A21","expires_in":32400}`))
		case "/v2/checkout/orders":
			assert.Equal(t, "Bearer A21", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("PayPal-Request-Id"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "49.00", gjson.GetBytes(body, "purchase_units.0.amount.value").String())
			assert.Equal(t, "sub-3", gjson.GetBytes(body, "purchase_units.0.reference_id").String())
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"ORDER1","status":"CREATED","links":[{"rel":"self","href":"x"},{"rel":"approve","href":"https://paypal/approve"}]}`))
		case "/v2/checkout/orders/ORDER1/capture":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"ORDER1","status":"COMPLETED","purchase_units":[{"reference_id":"sub-3","payments":{"captures":[{"id":"CAP1","amount":{"value":"49.00","currency_code":"USD"}}]}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestCreateAndCaptureOrder(t *testing.T) {
	var tokenCalls int32
	srv := newServer(t, &tokenCalls)
	defer srv.Close()

	c := NewClient(config.VendorConfig{BaseURL: srv.URL, APIKey: "client", Secret: "secret"}, nil)

	order, err := c.CreateOrder(context.Background(), 4900, "USD", "sub-3")
	require.NoError(t, err)
	assert.Equal(t, "ORDER1", order.ID)
	assert.Equal(t, "https://paypal/approve", order.ApproveURL)

	capture, err := c.CaptureOrder(context.Background(), "ORDER1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", capture.Status)
	assert.Equal(t, "sub-3", capture.ReferenceID)
	assert.Equal(t, int64(4900), capture.AmountCents)

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token should be cached")
}

func TestCreateOrder_Validation(t *testing.T) {
	c := NewClient(config.VendorConfig{BaseURL: "http://unused.invalid"}, nil)
	_, err := c.CreateOrder(context.Background(), 0, "USD", "x")
	assert.Error(t, err)
	_, err = c.CaptureOrder(context.Background(), "")
	assert.Error(t, err)
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "12.30", FormatAmount(1230))
	assert.Equal(t, int64(1230), ParseAmount("12.3"))
	assert.Equal(t, int64(1234), ParseAmount("12.34"))
	assert.Equal(t, int64(1200), ParseAmount("12"))
	assert.Equal(t, int64(0), ParseAmount("abc"))
}
