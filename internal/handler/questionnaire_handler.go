package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/risk"
	"foreclosure-assist/internal/service"
)

type QuestionnaireService interface {
	Submit(ctx context.Context, sub service.Submission) (*model.ForeclosureResponse, *model.RiskAssessment, error)
}

type QuestionnaireHandler struct {
	svc    QuestionnaireService
	logger *zap.Logger
}

func NewQuestionnaireHandler(svc QuestionnaireService, logger *zap.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc, logger: logger}
}

// Submit 提交问卷：评分并保存回复与评估
// POST /questionnaire
func (h *QuestionnaireHandler) Submit(c *gin.Context) {
	var sub service.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, "invalid request")
		return
	}

	resp, assessment, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		writeError(c, h.logger, "failed to submit questionnaire", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"response_id": resp.ID,
		"status":      resp.Status,
		"assessment":  assessment,
	})
}

// Score 只评分，不保存
// POST /risk/score
func (h *QuestionnaireHandler) Score(c *gin.Context) {
	var answers risk.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		badRequest(c, "invalid request")
		return
	}
	c.JSON(http.StatusOK, risk.Score(answers))
}
