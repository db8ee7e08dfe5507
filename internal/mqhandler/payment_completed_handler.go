package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/integration/hubspot"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/util"
)

// PaymentCompletedHandler emails a receipt and marks the customer in the CRM.
type PaymentCompletedHandler struct {
	users  UserFinder
	email  EmailSender
	crm    ContactUpserter
	guard  Guard
	from   Sender
	logger *zap.Logger
}

func NewPaymentCompletedHandler(users UserFinder, email EmailSender, crm ContactUpserter, guard Guard, from Sender, logger *zap.Logger) *PaymentCompletedHandler {
	return &PaymentCompletedHandler{users: users, email: email, crm: crm, guard: guard, from: from, logger: logger}
}

func (h *PaymentCompletedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.PaymentCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal PaymentCompletedPayload", zap.Error(err))
		return err
	}
	if p.SubscriptionID <= 0 || p.UserID <= 0 {
		return fmt.Errorf("invalid payment.completed event: subscription_id=%d", p.SubscriptionID)
	}

	key := util.DedupKey("payment_completed", p.SubscriptionID)
	if !h.guard.AcquireOnce(ctx, key) {
		return nil
	}

	u, err := h.users.FindByID(ctx, p.UserID)
	if err != nil {
		h.guard.Release(ctx, key)
		log.Error("Failed to load paying user", zap.Int64("user_id", p.UserID), zap.Error(err))
		return err
	}

	amount := FormatMoney(p.AmountCents, p.Currency)
	text := fmt.Sprintf("Thank you for your payment of %s.\n\nSubscription #%d is now active. Reference: %s (%s).\n",
		amount, p.SubscriptionID, p.ExternalID, p.Provider)
	if _, err := h.email.SendEmail(ctx, mailerlite.Email{
		FromEmail: h.from.Email,
		FromName:  h.from.Name,
		To:        u.Email,
		Subject:   "Your payment receipt",
		Text:      text,
		HTML:      "<p>" + strings.ReplaceAll(text, "\n\n", "</p><p>") + "</p>",
		Tags:      []string{"receipt"},
	}); err != nil {
		h.guard.Release(ctx, key)
		log.Error("Failed to send receipt", zap.Int64("subscription_id", p.SubscriptionID), zap.Error(err))
		return err
	}

	// the receipt is out; a CRM failure is logged but not retried to avoid a second receipt
	if _, _, err := h.crm.UpsertContact(ctx, hubspot.Contact{
		Email: u.Email,
		Properties: map[string]string{
			"subscription_status":   "active",
			"subscription_provider": p.Provider,
		},
	}); err != nil {
		log.Warn("Failed to update CRM after payment", zap.Int64("subscription_id", p.SubscriptionID), zap.Error(err))
	}

	log.Info("Payment completed handled",
		zap.Int64("subscription_id", p.SubscriptionID),
		zap.String("amount", amount),
	)
	return nil
}

// FormatMoney renders cents as "49.00 USD".
func FormatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}
