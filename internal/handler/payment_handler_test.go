package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/integration/twilio"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/service"
)

func paymentRouter(svc PaymentService) *gin.Engine {
	h := NewPaymentHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/webhooks/stripe", h.StripeWebhook)
	auth := r.Group("/", asUser(3, "user"))
	auth.GET("/subscriptions", h.Subscriptions)
	auth.POST("/payments/stripe/checkout", h.StripeCheckout)
	auth.POST("/payments/paypal/orders", h.CreatePayPalOrder)
	auth.POST("/payments/paypal/orders/:id/capture", h.CapturePayPalOrder)
	auth.POST("/subscriptions/:id/cancel", h.Cancel)
	return r
}

func TestStripeCheckout(t *testing.T) {
	svc := new(mockPayments)
	svc.On("StartStripeCheckout", mock.Anything, int64(3), "me@example.com", "monthly").
		Return(&stripe.Session{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, &model.Subscription{ID: 42}, nil)
	svc.On("StartStripeCheckout", mock.Anything, int64(3), "", "gold").
		Return(nil, nil, service.ErrUnknownPlan)
	r := paymentRouter(svc)

	w := perform(r, http.MethodPost, "/payments/stripe/checkout", gin.H{"plan": "monthly", "email": "me@example.com"})
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", body["checkout_url"])
	assert.EqualValues(t, 42, body["subscription_id"])

	w = perform(r, http.MethodPost, "/payments/stripe/checkout", gin.H{"plan": "gold"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhook_PassesRawBody(t *testing.T) {
	payload := `{"type":"checkout.session.completed"}`
	svc := new(mockPayments)
	svc.On("HandleStripeWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").Return(nil)
	svc.On("HandleStripeWebhook", mock.Anything, []byte(payload), "bad").Return(service.ErrInvalidInput)
	r := paymentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "bad")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	payload := `{"type":"checkout.session.completed"}`
	svc := new(mockPayments)
	svc.On("HandleStripeWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").
		Return(fmt.Errorf("%w: stripe webhook secret", service.ErrNotConfigured))
	r := paymentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPayPalFlow(t *testing.T) {
	svc := new(mockPayments)
	svc.On("CreatePayPalOrder", mock.Anything, int64(3), "monthly").
		Return(&paypal.Order{ID: "O-1", ApproveURL: "https://paypal.example/approve"}, &model.Subscription{ID: 8}, nil)
	svc.On("CapturePayPalOrder", mock.Anything, int64(3), "user", "O-1").
		Return(&model.Subscription{ID: 8, Status: model.SubscriptionStatusActive}, nil)
	svc.On("CapturePayPalOrder", mock.Anything, int64(3), "user", "O-2").
		Return(nil, service.ErrPaymentIncomplete)
	r := paymentRouter(svc)

	w := perform(r, http.MethodPost, "/payments/paypal/orders", gin.H{"plan": "monthly"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "O-1", decode(t, w)["order_id"])

	w = perform(r, http.MethodPost, "/payments/paypal/orders/O-1/capture", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.SubscriptionStatusActive, decode(t, w)["status"])

	w = perform(r, http.MethodPost, "/payments/paypal/orders/O-2/capture", nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestCancelSubscription_Forbidden(t *testing.T) {
	svc := new(mockPayments)
	svc.On("Cancel", mock.Anything, int64(3), "user", int64(8)).Return(service.ErrForbidden)

	w := perform(paymentRouter(svc), http.MethodPost, "/subscriptions/8/cancel", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func smsRouter(consent ConsentService, webhook SMSWebhookConfig) *gin.Engine {
	h := NewSMSHandler(consent, webhook, zap.NewNop())
	r := gin.New()
	r.POST("/sms/consent", h.OptIn)
	r.POST("/webhooks/twilio/sms", h.InboundSMS)
	return r
}

func postForm(r http.Handler, path string, form url.Values, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set(twilio.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInboundSMS_Stop(t *testing.T) {
	consent := new(mockConsent)
	consent.On("HandleInbound", mock.Anything, "+15551234567", "STOP").Return(service.ConsentOptedOut, nil)

	form := url.Values{"From": {"+15551234567"}, "Body": {"STOP"}}
	w := postForm(smsRouter(consent, SMSWebhookConfig{AllowUnsigned: true}), "/webhooks/twilio/sms", form, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Response>")
	consent.AssertExpectations(t)
}

func TestInboundSMS_Signature(t *testing.T) {
	const publicURL = "https://api.example.com"
	consent := new(mockConsent)
	consent.On("HandleInbound", mock.Anything, "+15551234567", "START").Return(service.ConsentOptedIn, nil)
	r := smsRouter(consent, SMSWebhookConfig{AuthToken: "secret-token", PublicURL: publicURL})
	form := url.Values{"From": {"+15551234567"}, "Body": {"START"}}

	w := postForm(r, "/webhooks/twilio/sms", form, "forged")
	assert.Equal(t, http.StatusForbidden, w.Code)
	consent.AssertNotCalled(t, "HandleInbound", mock.Anything, mock.Anything, mock.Anything)

	sig := twilio.Signature("secret-token", publicURL+"/webhooks/twilio/sms", form)
	w = postForm(r, "/webhooks/twilio/sms", form, sig)
	assert.Equal(t, http.StatusOK, w.Code)
	consent.AssertExpectations(t)
}

func TestInboundSMS_UnconfiguredRejects(t *testing.T) {
	consent := new(mockConsent)
	form := url.Values{"From": {"+15551234567"}, "Body": {"STOP"}}

	for _, webhook := range []SMSWebhookConfig{
		{},
		{AuthToken: "secret-token"},
		{PublicURL: "https://api.example.com"},
	} {
		w := postForm(smsRouter(consent, webhook), "/webhooks/twilio/sms", form, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	}
	consent.AssertNotCalled(t, "HandleInbound", mock.Anything, mock.Anything, mock.Anything)
}

func TestSMSOptIn(t *testing.T) {
	consent := new(mockConsent)
	consent.On("Record", mock.Anything, "555-123-4567", "web_form").Return(nil)
	consent.On("Record", mock.Anything, "12", "web_form").Return(service.ErrInvalidPhone)
	r := smsRouter(consent, SMSWebhookConfig{})

	w := perform(r, http.MethodPost, "/sms/consent", gin.H{"phone": "555-123-4567"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodPost, "/sms/consent", gin.H{"phone": "12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
