package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/rbac"
)

const (
	stripeCheckoutCompleted = "checkout.session.completed"
	paypalCaptureCompleted  = "COMPLETED"
)

type SubscriptionStore interface {
	Create(ctx context.Context, s *model.Subscription) error
	GetByID(ctx context.Context, id int64) (*model.Subscription, error)
	FindByExternalID(ctx context.Context, provider, externalID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error)
	SetExternalID(ctx context.Context, id int64, externalID string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Activate(ctx context.Context, id int64, provider, externalID string) (bool, error)
}

type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, in stripe.CheckoutRequest) (*stripe.Session, error)
}

type OrderProcessor interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, referenceID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
}

// PaymentService starts checkouts and activates subscriptions once the provider confirms payment.
type PaymentService struct {
	subs          SubscriptionStore
	checkout      CheckoutCreator
	orders        OrderProcessor
	cfg           config.PaymentsConfig
	webhookSecret string
	logger        *zap.Logger
}

func NewPaymentService(
	subs SubscriptionStore,
	checkout CheckoutCreator,
	orders OrderProcessor,
	cfg config.PaymentsConfig,
	webhookSecret string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		subs:          subs,
		checkout:      checkout,
		orders:        orders,
		cfg:           cfg,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (s *PaymentService) plan(name string) (config.PlanConfig, error) {
	p, ok := s.cfg.Plans[name]
	if !ok || p.AmountCents <= 0 {
		return config.PlanConfig{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}
	return p, nil
}

func (s *PaymentService) Subscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	return s.subs.ListByUser(ctx, userID)
}

// StartStripeCheckout creates a pending subscription and a Checkout session referencing it.
func (s *PaymentService) StartStripeCheckout(ctx context.Context, userID int64, email, planName string) (*stripe.Session, *model.Subscription, error) {
	p, err := s.plan(planName)
	if err != nil {
		return nil, nil, err
	}
	if p.StripePriceID == "" {
		return nil, nil, fmt.Errorf("%w: %q has no stripe price", ErrUnknownPlan, planName)
	}

	sub := &model.Subscription{
		UserID:      userID,
		Plan:        planName,
		Provider:    model.ProviderStripe,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, nil, err
	}

	ref := strconv.FormatInt(sub.ID, 10)
	session, err := s.checkout.CreateCheckoutSession(ctx, stripe.CheckoutRequest{
		PriceID:           p.StripePriceID,
		Mode:              "subscription",
		CustomerEmail:     email,
		ClientReferenceID: ref,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		Metadata:          map[string]string{"subscription_id": ref, "plan": planName},
		IdempotencyKey:    "sub-" + ref,
	})
	if err != nil {
		s.logger.Error("Stripe checkout failed", zap.Int64("subscription_id", sub.ID), zap.Error(err))
		return nil, nil, err
	}

	if err := s.subs.SetExternalID(ctx, sub.ID, session.ID); err != nil {
		return nil, nil, err
	}
	sub.ExternalID = session.ID
	return session, sub, nil
}

// HandleStripeWebhook verifies the event and activates the subscription on checkout completion.
// Other event types are acknowledged and ignored.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := stripe.VerifyWebhook(payload, signature, s.webhookSecret)
	if errors.Is(err, stripe.ErrNoSecret) {
		s.logger.Error("Rejecting stripe webhook, no signing secret configured")
		return fmt.Errorf("%w: stripe webhook secret", ErrNotConfigured)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if event.Type != stripeCheckoutCompleted {
		s.logger.Debug("Ignoring stripe event", zap.String("event_id", event.ID), zap.String("type", event.Type))
		return nil
	}
	if event.Object.Get("payment_status").String() == "unpaid" {
		s.logger.Info("Checkout completed without payment", zap.String("event_id", event.ID))
		return nil
	}

	sessionID := event.Object.Get("id").String()
	subID, err := strconv.ParseInt(event.Object.Get("client_reference_id").String(), 10, 64)
	if err != nil {
		sub, ferr := s.subs.FindByExternalID(ctx, model.ProviderStripe, sessionID)
		if ferr != nil {
			return ferr
		}
		subID = sub.ID
	}

	activated, err := s.subs.Activate(ctx, subID, model.ProviderStripe, sessionID)
	if err != nil {
		return err
	}
	s.logger.Info("Stripe checkout completed",
		zap.String("event_id", event.ID),
		zap.Int64("subscription_id", subID),
		zap.Bool("activated", activated),
	)
	return nil
}

// CreatePayPalOrder creates a pending subscription and the PayPal order the buyer approves.
func (s *PaymentService) CreatePayPalOrder(ctx context.Context, userID int64, planName string) (*paypal.Order, *model.Subscription, error) {
	p, err := s.plan(planName)
	if err != nil {
		return nil, nil, err
	}

	sub := &model.Subscription{
		UserID:      userID,
		Plan:        planName,
		Provider:    model.ProviderPayPal,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, nil, err
	}

	order, err := s.orders.CreateOrder(ctx, p.AmountCents, p.Currency, strconv.FormatInt(sub.ID, 10))
	if err != nil {
		s.logger.Error("PayPal order failed", zap.Int64("subscription_id", sub.ID), zap.Error(err))
		return nil, nil, err
	}
	if err := s.subs.SetExternalID(ctx, sub.ID, order.ID); err != nil {
		return nil, nil, err
	}
	sub.ExternalID = order.ID
	return order, sub, nil
}

// CapturePayPalOrder captures an approved order and activates its subscription.
// Only the owner or an admin may capture.
func (s *PaymentService) CapturePayPalOrder(ctx context.Context, userID int64, role, orderID string) (*model.Subscription, error) {
	sub, err := s.subs.FindByExternalID(ctx, model.ProviderPayPal, orderID)
	if err != nil {
		return nil, err
	}
	if err := rbac.ValidateOwner(userID, role, sub.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if sub.Status == model.SubscriptionStatusActive {
		return sub, nil
	}

	capture, err := s.orders.CaptureOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("PayPal capture failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	if capture.Status != paypalCaptureCompleted {
		return nil, fmt.Errorf("%w: capture status %s", ErrPaymentIncomplete, capture.Status)
	}
	if capture.AmountCents > 0 && capture.AmountCents != sub.AmountCents {
		s.logger.Warn("PayPal capture amount differs from plan",
			zap.String("order_id", orderID),
			zap.Int64("expected_cents", sub.AmountCents),
			zap.Int64("captured_cents", capture.AmountCents),
		)
	}

	if _, err := s.subs.Activate(ctx, sub.ID, model.ProviderPayPal, orderID); err != nil {
		return nil, err
	}
	sub.Status = model.SubscriptionStatusActive
	s.logger.Info("PayPal order captured", zap.String("order_id", orderID), zap.Int64("subscription_id", sub.ID))
	return sub, nil
}

// Cancel marks a subscription canceled locally. Admins may cancel any subscription.
func (s *PaymentService) Cancel(ctx context.Context, userID int64, role string, subscriptionID int64) error {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if err := rbac.ValidateOwner(userID, role, sub.UserID); err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return s.subs.UpdateStatus(ctx, subscriptionID, model.SubscriptionStatusCanceled)
}
