package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

type ModerationService interface {
	SubmitComment(ctx context.Context, c *model.Comment) error
	LessonComments(ctx context.Context, lessonID int64) ([]model.Comment, error)
	ListComments(ctx context.Context, status string, page repository.Page) ([]model.Comment, error)
	CommentCounts(ctx context.Context) (map[string]int, error)
	TransitionComment(ctx context.Context, id int64, to string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListResponses(ctx context.Context, status string, page repository.Page) ([]model.ForeclosureResponse, error)
	ResponseDetail(ctx context.Context, id int64) (*model.ForeclosureResponse, *model.RiskAssessment, error)
	ResponseCounts(ctx context.Context) (map[string]int, error)
	UpdateResponseStatus(ctx context.Context, id int64, status string) error
	DeleteResponse(ctx context.Context, id int64) error
}

type Notifier interface {
	NotifyResponse(ctx context.Context, responseID int64, channel, subject, message string) (*mqcontracts.NotificationRequestedPayload, error)
}

// ModerationHandler 评论审核与问卷回复管理
type ModerationHandler struct {
	svc      ModerationService
	notifier Notifier
	logger   *zap.Logger
}

func NewModerationHandler(svc ModerationService, notifier Notifier, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{svc: svc, notifier: notifier, logger: logger}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitComment POST /comments
func (h *ModerationHandler) SubmitComment(c *gin.Context) {
	var req struct {
		LessonID    *int64 `json:"lesson_id"`
		AuthorName  string `json:"author_name"`
		AuthorEmail string `json:"author_email"`
		Body        string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	comment := &model.Comment{
		LessonID:    req.LessonID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Body:        req.Body,
	}
	if err := h.svc.SubmitComment(c.Request.Context(), comment); err != nil {
		writeError(c, h.logger, "failed to submit comment", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": comment.ID, "status": comment.Status})
}

// LessonComments 只返回已通过的评论
// GET /lessons/:id/comments
func (h *ModerationHandler) LessonComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.svc.LessonComments(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "failed to list comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// ListComments GET /admin/comments?status=
func (h *ModerationHandler) ListComments(c *gin.Context) {
	comments, err := h.svc.ListComments(c.Request.Context(), c.Query("status"), page(c))
	if err != nil {
		writeError(c, h.logger, "failed to list comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CommentCounts GET /admin/comments/counts
func (h *ModerationHandler) CommentCounts(c *gin.Context) {
	counts, err := h.svc.CommentCounts(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "failed to count comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// TransitionComment PUT /admin/comments/:id/status
func (h *ModerationHandler) TransitionComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	comment, err := h.svc.TransitionComment(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, h.logger, "failed to update comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment DELETE /admin/comments/:id
func (h *ModerationHandler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "failed to delete comment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListResponses GET /admin/responses?status=
func (h *ModerationHandler) ListResponses(c *gin.Context) {
	responses, err := h.svc.ListResponses(c.Request.Context(), c.Query("status"), page(c))
	if err != nil {
		writeError(c, h.logger, "failed to list responses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// GetResponse GET /admin/responses/:id
func (h *ModerationHandler) GetResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, assessment, err := h.svc.ResponseDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "failed to load response", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": resp, "assessment": assessment})
}

// ResponseCounts GET /admin/responses/counts
func (h *ModerationHandler) ResponseCounts(c *gin.Context) {
	counts, err := h.svc.ResponseCounts(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "failed to count responses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// UpdateResponseStatus PUT /admin/responses/:id/status
func (h *ModerationHandler) UpdateResponseStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.svc.UpdateResponseStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, h.logger, "failed to update response", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// DeleteResponse DELETE /admin/responses/:id
func (h *ModerationHandler) DeleteResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteResponse(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "failed to delete response", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NotifyResponse 通过 worker 给回复人发邮件或短信
// POST /admin/responses/:id/notify
func (h *ModerationHandler) NotifyResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Subject string `json:"subject"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	p, err := h.notifier.NotifyResponse(c.Request.Context(), id, req.Channel, req.Subject, req.Message)
	if err != nil {
		writeError(c, h.logger, "failed to queue notification", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "channel": p.Channel, "to": p.To})
}
