package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

const kbSearchLimit = 20

type ContentStore interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	ListCourses(ctx context.Context, includeDrafts bool) ([]model.Course, error)
	CreateLesson(ctx context.Context, l *model.Lesson) error
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	DeleteLesson(ctx context.Context, id int64) error
	ListLessons(ctx context.Context, courseID int64) ([]model.Lesson, error)
	CreateKBArticle(ctx context.Context, a *model.KBArticle) error
	SearchKB(ctx context.Context, q string, limit int) ([]model.KBArticle, error)
	Enroll(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
	CompleteLesson(ctx context.Context, userID, lessonID int64) error
	LessonCourse(ctx context.Context, lessonID int64) (int64, error)
	Progress(ctx context.Context, userID, courseID int64) (*model.CourseProgress, error)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

type ContentService struct {
	store  ContentStore
	logger *zap.Logger
}

func NewContentService(store ContentStore, logger *zap.Logger) *ContentService {
	return &ContentService{store: store, logger: logger}
}

func (s *ContentService) ListCourses(ctx context.Context, includeDrafts bool) ([]model.Course, error) {
	return s.store.ListCourses(ctx, includeDrafts)
}

// PublicLessons lists lessons of a published course; drafts look like missing courses.
func (s *ContentService) PublicLessons(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Published {
		return nil, repository.ErrNotFound
	}
	return s.store.ListLessons(ctx, courseID)
}

func (s *ContentService) Lessons(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	return s.store.ListLessons(ctx, courseID)
}

func (s *ContentService) CreateCourse(ctx context.Context, c *model.Course) error {
	if err := prepareCourse(c); err != nil {
		return err
	}
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return err
	}
	s.logger.Info("Course created", zap.Int64("course_id", c.ID), zap.String("slug", c.Slug))
	return nil
}

func (s *ContentService) UpdateCourse(ctx context.Context, c *model.Course) error {
	if err := prepareCourse(c); err != nil {
		return err
	}
	return s.store.UpdateCourse(ctx, c)
}

func (s *ContentService) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Course deleted", zap.Int64("course_id", id))
	return nil
}

func (s *ContentService) CreateLesson(ctx context.Context, l *model.Lesson) error {
	if err := prepareLesson(l); err != nil {
		return err
	}
	if l.CourseID <= 0 {
		return fmt.Errorf("%w: course_id is required", ErrInvalidInput)
	}
	if _, err := s.store.GetCourse(ctx, l.CourseID); err != nil {
		return err
	}
	return s.store.CreateLesson(ctx, l)
}

func (s *ContentService) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	if err := prepareLesson(l); err != nil {
		return err
	}
	return s.store.UpdateLesson(ctx, l)
}

func (s *ContentService) DeleteLesson(ctx context.Context, id int64) error {
	return s.store.DeleteLesson(ctx, id)
}

func (s *ContentService) CreateKBArticle(ctx context.Context, a *model.KBArticle) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" || strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("%w: title and body are required", ErrInvalidInput)
	}
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	return s.store.CreateKBArticle(ctx, a)
}

// SearchKB returns no results for a blank query instead of the whole table.
func (s *ContentService) SearchKB(ctx context.Context, q string) ([]model.KBArticle, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.KBArticle{}, nil
	}
	return s.store.SearchKB(ctx, q, kbSearchLimit)
}

// Enroll only accepts published courses.
func (s *ContentService) Enroll(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Published {
		return nil, repository.ErrNotFound
	}
	return s.store.Enroll(ctx, userID, courseID)
}

// CompleteLesson records progress and returns the updated course percentage.
func (s *ContentService) CompleteLesson(ctx context.Context, userID, lessonID int64) (*model.CourseProgress, error) {
	courseID, err := s.store.LessonCourse(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.store.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	if err := s.store.CompleteLesson(ctx, userID, lessonID); err != nil {
		return nil, err
	}
	return s.store.Progress(ctx, userID, courseID)
}

func (s *ContentService) Progress(ctx context.Context, userID, courseID int64) (*model.CourseProgress, error) {
	enrolled, err := s.store.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	return s.store.Progress(ctx, userID, courseID)
}

func prepareCourse(c *model.Course) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	} else {
		c.Slug = Slugify(c.Slug)
	}
	if c.Slug == "" {
		return fmt.Errorf("%w: slug", ErrInvalidInput)
	}
	return nil
}

func prepareLesson(l *model.Lesson) error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if l.Position < 0 || l.DurationMin < 0 {
		return fmt.Errorf("%w: position and duration must not be negative", ErrInvalidInput)
	}
	return nil
}
