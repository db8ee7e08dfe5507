package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) CreateUser(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockResponses struct{ mock.Mock }

func (m *mockResponses) CreateWithAssessment(ctx context.Context, resp *model.ForeclosureResponse, a *model.RiskAssessment, lead *mqcontracts.LeadCreatedPayload) error {
	args := m.Called(ctx, resp, a, lead)
	return args.Error(0)
}

func (m *mockResponses) GetByID(ctx context.Context, id int64) (*model.ForeclosureResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ForeclosureResponse), args.Error(1)
}

func (m *mockResponses) GetAssessment(ctx context.Context, id int64) (*model.RiskAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RiskAssessment), args.Error(1)
}

func (m *mockResponses) List(ctx context.Context, status string, page repository.Page) ([]model.ForeclosureResponse, error) {
	args := m.Called(ctx, status, page)
	return args.Get(0).([]model.ForeclosureResponse), args.Error(1)
}

func (m *mockResponses) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockResponses) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockResponses) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) Create(ctx context.Context, c *model.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockComments) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *mockComments) List(ctx context.Context, status string, page repository.Page) ([]model.Comment, error) {
	args := m.Called(ctx, status, page)
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *mockComments) ListApprovedByLesson(ctx context.Context, lessonID int64) ([]model.Comment, error) {
	args := m.Called(ctx, lessonID)
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *mockComments) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockComments) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockComments) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockAnalytics struct{ mock.Mock }

func (m *mockAnalytics) Count(ctx context.Context, metric string) (int, error) {
	args := m.Called(ctx, metric)
	return args.Int(0), args.Error(1)
}

func (m *mockAnalytics) AssessmentsByLevel(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockAnalytics) ResponsesPerDay(ctx context.Context, days int) ([]model.DailyCount, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DailyCount), args.Error(1)
}

type mockConsents struct{ mock.Mock }

func (m *mockConsents) Upsert(ctx context.Context, c *model.SMSConsent) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockConsents) Get(ctx context.Context, phone string) (*model.SMSConsent, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SMSConsent), args.Error(1)
}

type mockSubs struct{ mock.Mock }

func (m *mockSubs) Create(ctx context.Context, s *model.Subscription) error {
	args := m.Called(ctx, s)
	if args.Error(0) == nil {
		s.ID = 42
		s.Status = model.SubscriptionStatusPending
	}
	return args.Error(0)
}

func (m *mockSubs) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubs) FindByExternalID(ctx context.Context, provider, externalID string) (*model.Subscription, error) {
	args := m.Called(ctx, provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubs) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *mockSubs) SetExternalID(ctx context.Context, id int64, externalID string) error {
	return m.Called(ctx, id, externalID).Error(0)
}

func (m *mockSubs) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSubs) Activate(ctx context.Context, id int64, provider, externalID string) (bool, error) {
	args := m.Called(ctx, id, provider, externalID)
	return args.Bool(0), args.Error(1)
}

type mockCheckout struct{ mock.Mock }

func (m *mockCheckout) CreateCheckoutSession(ctx context.Context, in stripe.CheckoutRequest) (*stripe.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Session), args.Error(1)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) CreateOrder(ctx context.Context, amountCents int64, currency, referenceID string) (*paypal.Order, error) {
	args := m.Called(ctx, amountCents, currency, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

func (m *mockOrders) CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Capture), args.Error(1)
}

type mockCampaigns struct{ mock.Mock }

func (m *mockCampaigns) Create(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaigns) Update(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaigns) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *mockCampaigns) List(ctx context.Context, status string, page repository.Page) ([]model.Campaign, error) {
	args := m.Called(ctx, status, page)
	return args.Get(0).([]model.Campaign), args.Error(1)
}

func (m *mockCampaigns) UpdateStatus(ctx context.Context, id int64, status string, scheduledAt, sentAt *time.Time) error {
	return m.Called(ctx, id, status, scheduledAt, sentAt).Error(0)
}

func (m *mockCampaigns) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type recordingPublisher struct {
	keys     []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	return p.PublishWithContext(context.Background(), routingKey, payload)
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return nil
}
