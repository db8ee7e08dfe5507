package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
)

func TestMaster_IsolatesFailures(t *testing.T) {
	store := new(mockAnalytics)
	store.On("Count", mock.Anything, "responses").Return(12, nil)
	store.On("Count", mock.Anything, "courses").Return(0, errors.New("relation does not exist"))
	store.On("AssessmentsByLevel", mock.Anything).Return(map[string]int{"low": 4, "medium": 5, "high": 3}, nil)
	store.On("ResponsesPerDay", mock.Anything, responsesPerDayWindow).Return([]model.DailyCount{{Day: "2026-10-18", Count: 2}}, nil)

	comments := new(mockComments)
	comments.On("CountByStatus", mock.Anything).Return(nil, errors.New("timeout"))
	responses := new(mockResponses)
	responses.On("CountByStatus", mock.Anything).Return(map[string]int{"new": 7}, nil)

	svc := NewAnalyticsService(store, StatusCounters{Responses: responses, Comments: comments}, []string{"responses", "courses"}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	out := svc.Master(context.Background())

	assert.Equal(t, map[string]int{"responses": 12}, out.Counts)
	assert.Equal(t, 3, out.RiskLevels["high"])
	assert.Equal(t, 7, out.ResponsesByStatus["new"])
	assert.Nil(t, out.CommentsByStatus)
	assert.Len(t, out.ResponsesPerDay, 1)
	assert.Equal(t, map[string]string{"courses": "unavailable", "comments_by_status": "unavailable"}, out.Errors)
	assert.Equal(t, "2026-10-19T12:00:00Z", out.GeneratedAt)
}

func TestMaster_NoErrors(t *testing.T) {
	store := new(mockAnalytics)
	store.On("AssessmentsByLevel", mock.Anything).Return(map[string]int{}, nil)
	store.On("ResponsesPerDay", mock.Anything, mock.Anything).Return([]model.DailyCount{}, nil)

	out := NewAnalyticsService(store, StatusCounters{}, nil, zap.NewNop()).Master(context.Background())
	assert.Nil(t, out.Errors)
	assert.Empty(t, out.Counts)
}
