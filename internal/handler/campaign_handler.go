package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

type CampaignService interface {
	List(ctx context.Context, status string, page repository.Page) ([]model.Campaign, error)
	Get(ctx context.Context, id int64) (*model.Campaign, error)
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	Transition(ctx context.Context, id int64, to string, scheduledAt *time.Time) (*model.Campaign, error)
	Delete(ctx context.Context, id int64) error
}

// CampaignHandler 营销活动看板
type CampaignHandler struct {
	svc    CampaignService
	logger *zap.Logger
}

func NewCampaignHandler(svc CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{svc: svc, logger: logger}
}

type campaignRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Channel string `json:"channel"`
}

func (r campaignRequest) model() *model.Campaign {
	return &model.Campaign{Name: r.Name, Subject: r.Subject, Body: r.Body, Channel: r.Channel}
}

// List GET /admin/campaigns?status=
func (h *CampaignHandler) List(c *gin.Context) {
	campaigns, err := h.svc.List(c.Request.Context(), c.Query("status"), page(c))
	if err != nil {
		writeError(c, h.logger, "failed to list campaigns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// Get GET /admin/campaigns/:id
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "failed to load campaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Create 新活动总是草稿
// POST /admin/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	campaign := req.model()
	if err := h.svc.Create(c.Request.Context(), campaign); err != nil {
		writeError(c, h.logger, "failed to create campaign", err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// Update 只能修改草稿
// PUT /admin/campaigns/:id
func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	campaign := req.model()
	campaign.ID = id
	if err := h.svc.Update(c.Request.Context(), campaign); err != nil {
		writeError(c, h.logger, "failed to update campaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Transition PUT /admin/campaigns/:id/status
func (h *CampaignHandler) Transition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status      string     `json:"status" binding:"required"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	campaign, err := h.svc.Transition(c.Request.Context(), id, req.Status, req.ScheduledAt)
	if err != nil {
		writeError(c, h.logger, "failed to update campaign status", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Delete DELETE /admin/campaigns/:id
func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "failed to delete campaign", err)
		return
	}
	c.Status(http.StatusNoContent)
}
