package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
)

type ContentService interface {
	ListCourses(ctx context.Context, includeDrafts bool) ([]model.Course, error)
	PublicLessons(ctx context.Context, courseID int64) ([]model.Lesson, error)
	Lessons(ctx context.Context, courseID int64) ([]model.Lesson, error)
	CreateCourse(ctx context.Context, c *model.Course) error
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	CreateLesson(ctx context.Context, l *model.Lesson) error
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	DeleteLesson(ctx context.Context, id int64) error
	CreateKBArticle(ctx context.Context, a *model.KBArticle) error
	SearchKB(ctx context.Context, q string) ([]model.KBArticle, error)
	Enroll(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	CompleteLesson(ctx context.Context, userID, lessonID int64) (*model.CourseProgress, error)
	Progress(ctx context.Context, userID, courseID int64) (*model.CourseProgress, error)
}

type ContentHandler struct {
	svc    ContentService
	logger *zap.Logger
}

func NewContentHandler(svc ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, logger: logger}
}

// ListCourses GET /courses
func (h *ContentHandler) ListCourses(c *gin.Context) {
	h.listCourses(c, false)
}

// ListAllCourses 包括草稿
// GET /admin/courses
func (h *ContentHandler) ListAllCourses(c *gin.Context) {
	h.listCourses(c, true)
}

func (h *ContentHandler) listCourses(c *gin.Context, includeDrafts bool) {
	courses, err := h.svc.ListCourses(c.Request.Context(), includeDrafts)
	if err != nil {
		writeError(c, h.logger, "failed to list courses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// ListLessons GET /courses/:id/lessons
func (h *ContentHandler) ListLessons(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.svc.PublicLessons(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "failed to list lessons", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

// AdminListLessons GET /admin/courses/:id/lessons
func (h *ContentHandler) AdminListLessons(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.svc.Lessons(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "failed to list lessons", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

// SearchKB GET /kb/search?q=
func (h *ContentHandler) SearchKB(c *gin.Context) {
	articles, err := h.svc.SearchKB(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, "failed to search knowledge base", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// CreateKBArticle POST /admin/kb
func (h *ContentHandler) CreateKBArticle(c *gin.Context) {
	var a model.KBArticle
	if err := c.ShouldBindJSON(&a); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.svc.CreateKBArticle(c.Request.Context(), &a); err != nil {
		writeError(c, h.logger, "failed to create article", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// CreateCourse POST /admin/courses
func (h *ContentHandler) CreateCourse(c *gin.Context) {
	var course model.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.svc.CreateCourse(c.Request.Context(), &course); err != nil {
		writeError(c, h.logger, "failed to create course", err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse PUT /admin/courses/:id
func (h *ContentHandler) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var course model.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		badRequest(c, "invalid request")
		return
	}
	course.ID = id
	if err := h.svc.UpdateCourse(c.Request.Context(), &course); err != nil {
		writeError(c, h.logger, "failed to update course", err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse DELETE /admin/courses/:id
func (h *ContentHandler) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCourse(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "failed to delete course", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateLesson POST /admin/courses/:id/lessons
func (h *ContentHandler) CreateLesson(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var l model.Lesson
	if err := c.ShouldBindJSON(&l); err != nil {
		badRequest(c, "invalid request")
		return
	}
	l.CourseID = courseID
	if err := h.svc.CreateLesson(c.Request.Context(), &l); err != nil {
		writeError(c, h.logger, "failed to create lesson", err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// UpdateLesson PUT /admin/lessons/:id
func (h *ContentHandler) UpdateLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var l model.Lesson
	if err := c.ShouldBindJSON(&l); err != nil {
		badRequest(c, "invalid request")
		return
	}
	l.ID = id
	if err := h.svc.UpdateLesson(c.Request.Context(), &l); err != nil {
		writeError(c, h.logger, "failed to update lesson", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DeleteLesson DELETE /admin/lessons/:id
func (h *ContentHandler) DeleteLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteLesson(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "failed to delete lesson", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Enroll POST /courses/:id/enroll
func (h *ContentHandler) Enroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		writeError(c, h.logger, "failed to enroll", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Progress GET /courses/:id/progress
func (h *ContentHandler) Progress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Progress(c.Request.Context(), userID, courseID)
	if err != nil {
		writeError(c, h.logger, "failed to load progress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CompleteLesson POST /lessons/:id/complete
func (h *ContentHandler) CompleteLesson(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.CompleteLesson(c.Request.Context(), userID, lessonID)
	if err != nil {
		writeError(c, h.logger, "failed to complete lesson", err)
		return
	}
	c.JSON(http.StatusOK, p)
}
