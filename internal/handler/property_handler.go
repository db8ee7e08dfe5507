package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/property"
)

type PropertyAggregator interface {
	Aggregate(ctx context.Context, address string) (*property.PropertyReport, error)
}

type PropertyHandler struct {
	aggregator PropertyAggregator
	logger     *zap.Logger
}

func NewPropertyHandler(aggregator PropertyAggregator, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{aggregator: aggregator, logger: logger}
}

// Report 汇总地址的公开数据
// GET /property/report?address=
func (h *PropertyHandler) Report(c *gin.Context) {
	report, err := h.aggregator.Aggregate(c.Request.Context(), c.Query("address"))
	if err != nil {
		writeError(c, h.logger, "failed to build property report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type estimateRequest struct {
	Sqft  float64               `json:"sqft"`
	Comps []property.Comparable `json:"comps"`
}

// Estimate 根据可比成交估价
// POST /property/estimate
func (h *PropertyHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.Sqft <= 0 {
		badRequest(c, "sqft must be positive")
		return
	}
	est, err := property.EstimateValue(req.Sqft, req.Comps)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, est)
}
