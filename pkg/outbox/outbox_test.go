package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/trace"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetPendingEvents(ctx context.Context, limit int) ([]*Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*Event), args.Error(1)
}

func (m *mockStore) MarkAsSent(ctx context.Context, eventID int64) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *mockStore) MarkAsFailed(ctx context.Context, eventID int64, maxRetries int) error {
	return m.Called(ctx, eventID, maxRetries).Error(0)
}

func (m *mockStore) GetEventByID(ctx context.Context, eventID int64) (*Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *mockStore) GetFailedEvents(ctx context.Context, limit int) ([]*Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*Event), args.Error(1)
}

type recordingPublisher struct {
	keys   []string
	traces []string
	failOn string
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	return p.PublishWithContext(context.Background(), routingKey, payload)
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	if routingKey == p.failOn {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, routingKey)
	p.traces = append(p.traces, trace.FromContext(ctx))
	return nil
}

func event(id int64, key string, payload string) *Event {
	return &Event{ID: id, RoutingKey: key, Payload: json.RawMessage(payload), Status: StatusPending}
}

func TestDispatcher_ProcessPending(t *testing.T) {
	store := new(mockStore)
	pub := &recordingPublisher{failOn: "payment.completed"}

	store.On("GetPendingEvents", mock.Anything, 100).Return([]*Event{
		event(1, "lead.created", `{"response_id":1,"trace_id":"abc"}`),
		event(2, "payment.completed", `{"subscription_id":9}`),
		event(3, "notification.requested", `not-json`),
	}, nil)
	store.On("MarkAsSent", mock.Anything, int64(1)).Return(nil)
	store.On("MarkAsFailed", mock.Anything, int64(2), 5).Return(nil)
	store.On("MarkAsFailed", mock.Anything, int64(3), 5).Return(nil)

	d := NewDispatcher(store, pub, zap.NewNop())
	published := d.ProcessPending(context.Background())

	assert.Equal(t, 1, published)
	assert.Equal(t, []string{"lead.created"}, pub.keys)
	assert.Equal(t, []string{"abc"}, pub.traces)
	store.AssertExpectations(t)
}

func TestReplayService_ReplayFailedEvents(t *testing.T) {
	store := new(mockStore)
	pub := &recordingPublisher{}

	failed := []*Event{event(7, "lead.created", `{}`), event(8, "lead.created", `{}`)}
	store.On("GetFailedEvents", mock.Anything, 10).Return(failed, nil)
	store.On("GetEventByID", mock.Anything, int64(7)).Return(failed[0], nil)
	store.On("GetEventByID", mock.Anything, int64(8)).Return(nil, ErrEventNotFound)
	store.On("MarkAsSent", mock.Anything, int64(7)).Return(nil)

	svc := NewReplayService(store, pub, zap.NewNop())
	n, err := svc.ReplayFailedEvents(context.Background(), 10)

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	store.AssertExpectations(t)
}

func TestNextAttempt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	status, count, next := NextAttempt(0, 5, now)
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(5*time.Second), *next)

	status, count, next = NextAttempt(4, 5, now)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, 5, count)
	assert.Nil(t, next)
}
