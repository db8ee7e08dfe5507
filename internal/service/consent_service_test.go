package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(555) 123-4567":   "+15551234567",
		"555.123.4567":     "+15551234567",
		"1-555-123-4567":   "+15551234567",
		"+44 20 7946 0958": "+442079460958",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "12345", "555-CALL-NOW", "+0123456789", "25551234567"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestHandleInbound(t *testing.T) {
	store := new(mockConsents)
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.SMSConsent) bool {
		return c.Phone == "+15551234567" && !c.OptedIn
	})).Return(nil).Once()
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.SMSConsent) bool {
		return c.Phone == "+15551234567" && c.OptedIn
	})).Return(nil).Once()

	svc := NewConsentService(store, zap.NewNop())
	ctx := context.Background()

	action, err := svc.HandleInbound(ctx, "+15551234567", " stop ")
	require.NoError(t, err)
	assert.Equal(t, ConsentOptedOut, action)

	action, err = svc.HandleInbound(ctx, "+15551234567", "START")
	require.NoError(t, err)
	assert.Equal(t, ConsentOptedIn, action)

	action, err = svc.HandleInbound(ctx, "+15551234567", "stop calling me please")
	require.NoError(t, err)
	assert.Equal(t, ConsentIgnored, action)

	store.AssertExpectations(t)
}

func TestHasConsent(t *testing.T) {
	store := new(mockConsents)
	store.On("Get", mock.Anything, "+15551234567").Return(&model.SMSConsent{Phone: "+15551234567", OptedIn: true}, nil)
	store.On("Get", mock.Anything, "+15559990000").Return(nil, repository.ErrNotFound)

	svc := NewConsentService(store, zap.NewNop())

	ok, err := svc.HasConsent(context.Background(), "555-123-4567")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasConsent(context.Background(), "+15559990000")
	require.NoError(t, err)
	assert.False(t, ok)
}
