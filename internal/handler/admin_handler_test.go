package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"foreclosure-assist/internal/followup"
	"foreclosure-assist/internal/integration"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
	"foreclosure-assist/pkg/outbox"
)

func adminRouter(h *AdminHandler) *gin.Engine {
	r := gin.New()
	r.POST("/admin/outbox/replay", h.ReplayOutboxEvent)
	r.POST("/admin/outbox/replay-failed", h.ReplayFailedEvents)
	r.GET("/admin/analytics", h.Analytics)
	r.POST("/admin/followup/run", h.RunFollowup)
	r.GET("/admin/connectivity", h.Connectivity)
	return r
}

func TestReplayOutboxEvent(t *testing.T) {
	replay := new(mockReplay)
	replay.On("ReplayEvent", mock.Anything, int64(10)).Return(nil)
	replay.On("ReplayEvent", mock.Anything, int64(11)).Return(fmt.Errorf("failed to get event: %w", outbox.ErrEventNotFound))
	r := adminRouter(NewAdminHandler(replay, nil, nil, nil, zap.NewNop()))

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/admin/outbox/replay", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/admin/outbox/replay?id=x", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/outbox/replay?id=10", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPost, "/admin/outbox/replay?id=11", nil).Code)
}

func TestReplayFailedEvents_DefaultLimit(t *testing.T) {
	replay := new(mockReplay)
	replay.On("ReplayFailedEvents", mock.Anything, 100).Return(3, nil)
	r := adminRouter(NewAdminHandler(replay, nil, nil, nil, zap.NewNop()))

	w := perform(r, http.MethodPost, "/admin/outbox/replay-failed?limit=-5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["success_count"])
	replay.AssertExpectations(t)
}

func TestAnalytics_PartialFailure(t *testing.T) {
	out := &model.MasterAnalytics{
		Counts: map[string]int{"responses": 4},
		Errors: map[string]string{"risk_levels": "unavailable"},
	}
	r := adminRouter(NewAdminHandler(nil, stubAnalytics{out}, nil, nil, zap.NewNop()))

	w := perform(r, http.MethodGet, "/admin/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 4, body["counts"].(map[string]any)["responses"])
	assert.Equal(t, "unavailable", body["errors"].(map[string]any)["risk_levels"])
}

func TestRunFollowup(t *testing.T) {
	runner := stubRunner{res: followup.Result{Matched: 3, Sent: 2, Failed: 1}, err: errors.New("send failed")}
	h := NewAdminHandler(nil, nil, runner, nil, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	w := perform(adminRouter(h), http.MethodPost, "/admin/followup/run", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["result"].(map[string]any)["sent"])
	assert.Equal(t, "send failed", body["error"])
}

func TestConnectivity(t *testing.T) {
	results := stubConnectivity{
		{Vendor: "hubspot", Reachable: true, StatusCode: 404},
		{Vendor: "twilio", Error: "timeout"},
	}
	w := perform(adminRouter(NewAdminHandler(nil, nil, nil, results, zap.NewNop())), http.MethodGet, "/admin/connectivity", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["healthy"])
	assert.Len(t, body["vendors"], 2)
}

var _ ConnectivityChecker = (*integration.Connectivity)(nil)

func campaignRouter(svc CampaignService) *gin.Engine {
	h := NewCampaignHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/admin/campaigns/:id", h.Get)
	r.POST("/admin/campaigns", h.Create)
	r.PUT("/admin/campaigns/:id/status", h.Transition)
	r.DELETE("/admin/campaigns/:id", h.Delete)
	return r
}

func TestCampaignHandler(t *testing.T) {
	svc := new(mockCampaigns)
	svc.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Campaign) bool {
		return c.Name == "Spring" && c.Channel == "EMAIL"
	})).Return(nil)
	svc.On("Get", mock.Anything, int64(404)).Return(nil, repository.ErrNotFound)
	svc.On("Transition", mock.Anything, int64(2), "scheduled", mock.AnythingOfType("*time.Time")).
		Return(&model.Campaign{ID: 2, Status: "scheduled"}, nil)
	svc.On("Transition", mock.Anything, int64(2), "draft", (*time.Time)(nil)).
		Return(nil, service.ErrInvalidTransition)
	svc.On("Delete", mock.Anything, int64(2)).Return(nil)
	r := campaignRouter(svc)

	w := perform(r, http.MethodPost, "/admin/campaigns", gin.H{"name": "Spring", "subject": "Hi", "channel": "EMAIL"})
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/admin/campaigns/404", nil).Code)

	w = perform(r, http.MethodPut, "/admin/campaigns/2/status", gin.H{"status": "scheduled", "scheduled_at": "2030-01-01T09:00:00Z"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodPut, "/admin/campaigns/2/status", gin.H{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodDelete, "/admin/campaigns/2", nil).Code)
	svc.AssertExpectations(t)
}
