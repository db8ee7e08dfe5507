package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
)

func TestNotifyResponse(t *testing.T) {
	responses := new(mockResponses)
	responses.On("GetByID", mock.Anything, int64(3)).
		Return(&model.ForeclosureResponse{ID: 3, Name: "Jane", Email: "jane@example.com", Phone: "+15551234567"}, nil)
	responses.On("GetByID", mock.Anything, int64(4)).
		Return(&model.ForeclosureResponse{ID: 4, Name: "Sam", Email: "sam@example.com"}, nil)

	pub := &recordingPublisher{}
	svc := NewNotifyService(responses, pub, zap.NewNop())
	ctx := context.Background()

	p, err := svc.NotifyResponse(ctx, 3, "sms", "", "Call us back")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", p.To)
	first := p.RequestID
	assert.NotEmpty(t, first)
	assert.Equal(t, []string{mqcontracts.RoutingKeyNotificationRequested}, pub.keys)

	_, err = svc.NotifyResponse(ctx, 4, "SMS", "", "Call us back")
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err = svc.NotifyResponse(ctx, 4, "EMAIL", "Hello", "Call us back")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", p.To)
	assert.NotEqual(t, first, p.RequestID)

	_, err = svc.NotifyResponse(ctx, 4, "EMAIL", "Hello", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, pub.keys, 2)
}
