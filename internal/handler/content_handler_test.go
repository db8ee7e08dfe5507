package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
)

func TestListCourses_PublicVsAdmin(t *testing.T) {
	svc := &fakeContent{courses: []model.Course{{ID: 1, Title: "Options", Published: true}}}
	h := NewContentHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/courses", h.ListCourses)
	r.GET("/admin/courses", h.ListAllCourses)

	w := perform(r, http.MethodGet, "/courses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.drafts)
	assert.Len(t, decode(t, w)["courses"], 1)

	perform(r, http.MethodGet, "/admin/courses", nil)
	assert.True(t, svc.drafts)
}

func TestEnroll(t *testing.T) {
	svc := &fakeContent{enrolled: func(userID, courseID int64) (*model.Enrollment, error) {
		if courseID == 404 {
			return nil, repository.ErrNotFound
		}
		return &model.Enrollment{UserID: userID, CourseID: courseID}, nil
	}}
	h := NewContentHandler(svc, zap.NewNop())

	r := gin.New()
	r.POST("/courses/:id/enroll", asUser(12, "user"), h.Enroll)

	w := perform(r, http.MethodPost, "/courses/3/enroll", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, decode(t, w)["user_id"])

	w = perform(r, http.MethodPost, "/courses/404/enroll", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	anon := gin.New()
	anon.POST("/courses/:id/enroll", h.Enroll)
	w = perform(anon, http.MethodPost, "/courses/3/enroll", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCompleteLesson(t *testing.T) {
	svc := &fakeContent{complete: func(userID, lessonID int64) (*model.CourseProgress, error) {
		if lessonID == 2 {
			return nil, service.ErrNotEnrolled
		}
		return &model.CourseProgress{CourseID: 1, TotalLessons: 4, CompletedLessons: 1, Percent: 25}, nil
	}}
	h := NewContentHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/lessons/:id/complete", asUser(1, "user"), h.CompleteLesson)

	w := perform(r, http.MethodPost, "/lessons/1/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 25, decode(t, w)["percent"])

	w = perform(r, http.MethodPost, "/lessons/2/complete", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateLesson_UsesPathCourse(t *testing.T) {
	svc := &fakeContent{}
	h := NewContentHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/admin/courses/:id/lessons", h.CreateLesson)

	w := perform(r, http.MethodPost, "/admin/courses/6/lessons", gin.H{"title": "Intro", "course_id": 99, "position": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.EqualValues(t, 6, svc.created.CourseID)
	assert.EqualValues(t, 9, decode(t, w)["id"])
}
