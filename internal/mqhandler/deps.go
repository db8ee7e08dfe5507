package mqhandler

import (
	"context"
	"strings"

	"foreclosure-assist/internal/integration/hubspot"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/model"
)

type ContactUpserter interface {
	UpsertContact(ctx context.Context, contact hubspot.Contact) (string, bool, error)
}

type SubscriberUpserter interface {
	UpsertSubscriber(ctx context.Context, email, name string, groups []string) (string, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, e mailerlite.Email) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type ConsentChecker interface {
	HasConsent(ctx context.Context, phone string) (bool, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Guard is satisfied by *util.Deduper.
type Guard interface {
	AcquireOnce(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

// Sender 邮件发件人
type Sender struct {
	Email string
	Name  string
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}
