package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

// inbound SMS keywords, matched on the whole trimmed body
var (
	optOutKeywords = map[string]bool{"STOP": true, "STOPALL": true, "UNSUBSCRIBE": true, "CANCEL": true, "END": true, "QUIT": true}
	optInKeywords  = map[string]bool{"START": true, "YES": true, "UNSTOP": true}
)

// Actions returned by HandleInbound.
const (
	ConsentOptedIn  = "opted_in"
	ConsentOptedOut = "opted_out"
	ConsentIgnored  = "ignored"
)

type ConsentStore interface {
	Upsert(ctx context.Context, c *model.SMSConsent) error
	Get(ctx context.Context, phone string) (*model.SMSConsent, error)
}

// NormalizePhone returns the E.164 form of a phone number. Ten-digit numbers are
// taken as US numbers.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	d := digits.String()

	switch {
	case plus && len(d) >= 8 && len(d) <= 15 && d[0] != '0':
		return "+" + d, nil
	case !plus && len(d) == 10:
		return "+1" + d, nil
	case !plus && len(d) == 11 && d[0] == '1':
		return "+" + d, nil
	}
	return "", ErrInvalidPhone
}

type ConsentService struct {
	store  ConsentStore
	logger *zap.Logger
}

func NewConsentService(store ConsentStore, logger *zap.Logger) *ConsentService {
	return &ConsentService{store: store, logger: logger}
}

// Record opts a phone number in.
func (s *ConsentService) Record(ctx context.Context, phone, source string) error {
	return s.set(ctx, phone, true, source)
}

func (s *ConsentService) OptOut(ctx context.Context, phone, source string) error {
	return s.set(ctx, phone, false, source)
}

// HasConsent is false for numbers never seen.
func (s *ConsentService) HasConsent(ctx context.Context, phone string) (bool, error) {
	p, err := NormalizePhone(phone)
	if err != nil {
		return false, err
	}
	c, err := s.store.Get(ctx, p)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.OptedIn, nil
}

// HandleInbound applies a STOP/START style keyword from an inbound SMS.
func (s *ConsentService) HandleInbound(ctx context.Context, from, body string) (string, error) {
	keyword := strings.ToUpper(strings.TrimSpace(body))
	switch {
	case optOutKeywords[keyword]:
		if err := s.OptOut(ctx, from, "sms_keyword"); err != nil {
			return "", err
		}
		return ConsentOptedOut, nil
	case optInKeywords[keyword]:
		if err := s.Record(ctx, from, "sms_keyword"); err != nil {
			return "", err
		}
		return ConsentOptedIn, nil
	}
	return ConsentIgnored, nil
}

func (s *ConsentService) set(ctx context.Context, phone string, optedIn bool, source string) error {
	p, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, &model.SMSConsent{Phone: p, OptedIn: optedIn, Source: source}); err != nil {
		return err
	}
	s.logger.Info("SMS consent updated", zap.String("phone", p), zap.Bool("opted_in", optedIn), zap.String("source", source))
	return nil
}
