package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

const maxCommentLen = 4000

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	List(ctx context.Context, status string, page repository.Page) ([]model.Comment, error)
	ListApprovedByLesson(ctx context.Context, lessonID int64) ([]model.Comment, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type ResponseStore interface {
	GetByID(ctx context.Context, id int64) (*model.ForeclosureResponse, error)
	GetAssessment(ctx context.Context, responseID int64) (*model.RiskAssessment, error)
	List(ctx context.Context, status string, page repository.Page) ([]model.ForeclosureResponse, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

// CanTransitionComment reports whether a comment may move from one status to another.
// pending goes to any verdict; a verdict can only go back to pending for re-review.
func CanTransitionComment(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case model.CommentStatusPending:
		return to == model.CommentStatusApproved || to == model.CommentStatusRejected || to == model.CommentStatusSpam
	case model.CommentStatusApproved, model.CommentStatusRejected, model.CommentStatusSpam:
		return to == model.CommentStatusPending
	}
	return false
}

// ModerationService backs the admin comment queue and the response dashboard.
type ModerationService struct {
	comments  CommentStore
	responses ResponseStore
	logger    *zap.Logger
}

func NewModerationService(comments CommentStore, responses ResponseStore, logger *zap.Logger) *ModerationService {
	return &ModerationService{comments: comments, responses: responses, logger: logger}
}

// SubmitComment stores a public comment in the pending queue.
func (s *ModerationService) SubmitComment(ctx context.Context, c *model.Comment) error {
	c.AuthorName = strings.TrimSpace(c.AuthorName)
	c.Body = strings.TrimSpace(c.Body)
	if c.AuthorName == "" || c.Body == "" {
		return fmt.Errorf("%w: author name and body are required", ErrInvalidInput)
	}
	if len(c.Body) > maxCommentLen {
		return fmt.Errorf("%w: comment too long", ErrInvalidInput)
	}
	if c.AuthorEmail != "" {
		email, err := NormalizeEmail(c.AuthorEmail)
		if err != nil {
			return err
		}
		c.AuthorEmail = email
	}
	c.Status = model.CommentStatusPending
	return s.comments.Create(ctx, c)
}

func (s *ModerationService) LessonComments(ctx context.Context, lessonID int64) ([]model.Comment, error) {
	return s.comments.ListApprovedByLesson(ctx, lessonID)
}

func (s *ModerationService) ListComments(ctx context.Context, status string, page repository.Page) ([]model.Comment, error) {
	if status != "" && !slices.Contains(model.CommentStatuses, status) {
		return nil, ErrInvalidStatus
	}
	return s.comments.List(ctx, status, page)
}

func (s *ModerationService) CommentCounts(ctx context.Context) (map[string]int, error) {
	return s.comments.CountByStatus(ctx)
}

// TransitionComment applies one status change. Concurrent moderators: last writer wins.
func (s *ModerationService) TransitionComment(ctx context.Context, id int64, to string) (*model.Comment, error) {
	if !slices.Contains(model.CommentStatuses, to) {
		return nil, ErrInvalidStatus
	}
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionComment(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	if err := s.comments.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}

	s.logger.Info("Comment moderated", zap.Int64("comment_id", id), zap.String("from", c.Status), zap.String("to", to))
	c.Status = to
	return c, nil
}

func (s *ModerationService) DeleteComment(ctx context.Context, id int64) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Comment deleted", zap.Int64("comment_id", id))
	return nil
}

func (s *ModerationService) ListResponses(ctx context.Context, status string, page repository.Page) ([]model.ForeclosureResponse, error) {
	if status != "" && !slices.Contains(model.ResponseStatuses, status) {
		return nil, ErrInvalidStatus
	}
	return s.responses.List(ctx, status, page)
}

// ResponseDetail returns a response with its assessment; a missing assessment is not an error.
func (s *ModerationService) ResponseDetail(ctx context.Context, id int64) (*model.ForeclosureResponse, *model.RiskAssessment, error) {
	resp, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.responses.GetAssessment(ctx, id)
	if err != nil {
		s.logger.Warn("Assessment lookup failed", zap.Int64("response_id", id), zap.Error(err))
		return resp, nil, nil
	}
	return resp, a, nil
}

func (s *ModerationService) ResponseCounts(ctx context.Context) (map[string]int, error) {
	return s.responses.CountByStatus(ctx)
}

// UpdateResponseStatus moves a response to any known status.
func (s *ModerationService) UpdateResponseStatus(ctx context.Context, id int64, status string) error {
	if !slices.Contains(model.ResponseStatuses, status) {
		return ErrInvalidStatus
	}
	if err := s.responses.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("Response status updated", zap.Int64("response_id", id), zap.String("status", status))
	return nil
}

func (s *ModerationService) DeleteResponse(ctx context.Context, id int64) error {
	if err := s.responses.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Response deleted", zap.Int64("response_id", id))
	return nil
}
