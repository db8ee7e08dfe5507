package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/util"
)

// NotificationRequestedHandler delivers one EMAIL or SMS notification per request id.
// SMS goes out only to numbers that have opted in.
type NotificationRequestedHandler struct {
	email   EmailSender
	sms     SMSSender
	consent ConsentChecker
	guard   Guard
	from    Sender
	logger  *zap.Logger
}

func NewNotificationRequestedHandler(email EmailSender, sms SMSSender, consent ConsentChecker, guard Guard, from Sender, logger *zap.Logger) *NotificationRequestedHandler {
	return &NotificationRequestedHandler{email: email, sms: sms, consent: consent, guard: guard, from: from, logger: logger}
}

func (h *NotificationRequestedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.NotificationRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal NotificationRequestedPayload", zap.Error(err))
		return err
	}
	if p.RequestID == "" || p.To == "" || strings.TrimSpace(p.Message) == "" {
		return fmt.Errorf("invalid notification: request_id, recipient and message are required")
	}

	var send func(context.Context, *zap.Logger, mqcontracts.NotificationRequestedPayload) error
	switch p.Channel {
	case mqcontracts.ChannelEmail:
		send = h.sendEmail
	case mqcontracts.ChannelSMS:
		send = h.sendSMS
	default:
		log.Error("Unknown notification channel", zap.String("channel", p.Channel))
		return fmt.Errorf("unknown notification channel %q", p.Channel)
	}

	key := util.DedupKey("notification", p.RequestID)
	if !h.guard.AcquireOnce(ctx, key) {
		log.Info("Duplicate notification.requested ignored", zap.String("request_id", p.RequestID))
		return nil
	}
	if err := send(ctx, log, p); err != nil {
		h.guard.Release(ctx, key)
		return err
	}
	return nil
}

func (h *NotificationRequestedHandler) sendEmail(ctx context.Context, log *zap.Logger, p mqcontracts.NotificationRequestedPayload) error {
	subject := p.Subject
	if subject == "" {
		subject = "A message from Foreclosure Assist"
	}
	id, err := h.email.SendEmail(ctx, mailerlite.Email{
		FromEmail: h.from.Email,
		FromName:  h.from.Name,
		To:        p.To,
		ToName:    p.Name,
		Subject:   subject,
		Text:      p.Message,
		HTML:      "<p>" + strings.ReplaceAll(html.EscapeString(p.Message), "\n", "<br>") + "</p>",
		Tags:      []string{"notification"},
	})
	if err != nil {
		log.Error("Failed to send email notification", zap.String("to", p.To), zap.Error(err))
		return err
	}
	log.Info("Email notification sent", zap.String("to", p.To), zap.String("message_id", id))
	return nil
}

func (h *NotificationRequestedHandler) sendSMS(ctx context.Context, log *zap.Logger, p mqcontracts.NotificationRequestedPayload) error {
	ok, err := h.consent.HasConsent(ctx, p.To)
	if err != nil {
		log.Error("Failed to check SMS consent", zap.String("to", p.To), zap.Error(err))
		return err
	}
	if !ok {
		// dropping is the correct outcome; a retry would not change it
		log.Warn("Skipping SMS without consent", zap.String("to", p.To))
		return nil
	}

	sid, err := h.sms.SendSMS(ctx, p.To, p.Message)
	if err != nil {
		log.Error("Failed to send SMS notification", zap.String("to", p.To), zap.Error(err))
		return err
	}
	log.Info("SMS notification sent", zap.String("to", p.To), zap.String("sid", sid))
	return nil
}
