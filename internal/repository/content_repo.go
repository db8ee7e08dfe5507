package repository

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"foreclosure-assist/internal/model"
)

const (
	courseColumns = `id, title, slug, description, published, created_at, updated_at`
	lessonColumns = `id, course_id, title, body, video_url, position, duration_min, created_at, updated_at`
)

// ContentRepository covers courses, lessons, the knowledge base and enrollment progress.
type ContentRepository struct {
	db *pgxpool.Pool
}

func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) CreateCourse(ctx context.Context, c *model.Course) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO courses (title, slug, description, published)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `, c.Title, c.Slug, c.Description, c.Published).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "create course")
}

func (r *ContentRepository) UpdateCourse(ctx context.Context, c *model.Course) error {
	err := r.db.QueryRow(ctx, `
        UPDATE courses
        SET title = $2, slug = $3, description = $4, published = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `, c.ID, c.Title, c.Slug, c.Description, c.Published).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err, "update course")
}

func (r *ContentRepository) DeleteCourse(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return expectOne(tag, err, "delete course")
}

func (r *ContentRepository) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	var c model.Course
	err := r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err, "get course")
	}
	return &c, nil
}

// ListCourses returns only published courses unless includeDrafts is set.
func (r *ContentRepository) ListCourses(ctx context.Context, includeDrafts bool) ([]model.Course, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+courseColumns+`
        FROM courses
        WHERE published OR $1
        ORDER BY title
    `, includeDrafts)
	if err != nil {
		return nil, translate(err, "list courses")
	}
	defer rows.Close()

	out := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContentRepository) CreateLesson(ctx context.Context, l *model.Lesson) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO lessons (course_id, title, body, video_url, position, duration_min)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `, l.CourseID, l.Title, l.Body, l.VideoURL, l.Position, l.DurationMin).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return translate(err, "create lesson")
}

func (r *ContentRepository) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	err := r.db.QueryRow(ctx, `
        UPDATE lessons
        SET title = $2, body = $3, video_url = $4, position = $5, duration_min = $6, updated_at = NOW()
        WHERE id = $1
        RETURNING course_id, created_at, updated_at
    `, l.ID, l.Title, l.Body, l.VideoURL, l.Position, l.DurationMin).Scan(&l.CourseID, &l.CreatedAt, &l.UpdatedAt)
	return translate(err, "update lesson")
}

func (r *ContentRepository) DeleteLesson(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return expectOne(tag, err, "delete lesson")
}

// ListLessons orders by position, then id for ties.
func (r *ContentRepository) ListLessons(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+lessonColumns+`
        FROM lessons
        WHERE course_id = $1
        ORDER BY position, id
    `, courseID)
	if err != nil {
		return nil, translate(err, "list lessons")
	}
	defer rows.Close()

	out := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Body, &l.VideoURL, &l.Position, &l.DurationMin, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ContentRepository) CreateKBArticle(ctx context.Context, a *model.KBArticle) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO kb_articles (title, slug, body, category)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, a.Title, a.Slug, a.Body, a.Category).Scan(&a.ID, &a.CreatedAt)
	return translate(err, "create kb article")
}

// SearchKB matches q case-insensitively against title and body; title hits rank first.
func (r *ContentRepository) SearchKB(ctx context.Context, q string, limit int) ([]model.KBArticle, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := "%" + escapeLike(q) + "%"
	rows, err := r.db.Query(ctx, `
        SELECT id, title, slug, body, category, created_at
        FROM kb_articles
        WHERE title ILIKE $1 OR body ILIKE $1
        ORDER BY (title ILIKE $1) DESC, title
        LIMIT $2
    `, pattern, limit)
	if err != nil {
		return nil, translate(err, "search kb")
	}
	defer rows.Close()

	out := []model.KBArticle{}
	for rows.Next() {
		var a model.KBArticle
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.Category, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Enroll is idempotent: enrolling twice returns the original enrollment.
func (r *ContentRepository) Enroll(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.QueryRow(ctx, `
        INSERT INTO enrollments (user_id, course_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, course_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING id, user_id, course_id, enrolled_at
    `, userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt)
	if err != nil {
		return nil, translate(err, "enroll")
	}
	return &e, nil
}

func (r *ContentRepository) IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`, userID, courseID).Scan(&ok)
	return ok, translate(err, "check enrollment")
}

// CompleteLesson marks a lesson done for the user; repeated calls are no-ops.
func (r *ContentRepository) CompleteLesson(ctx context.Context, userID, lessonID int64) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO lesson_progress (user_id, lesson_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, lesson_id) DO NOTHING
    `, userID, lessonID)
	return translate(err, "complete lesson")
}

// LessonCourse returns the course a lesson belongs to.
func (r *ContentRepository) LessonCourse(ctx context.Context, lessonID int64) (int64, error) {
	var courseID int64
	err := r.db.QueryRow(ctx, `SELECT course_id FROM lessons WHERE id = $1`, lessonID).Scan(&courseID)
	return courseID, translate(err, "get lesson course")
}

func (r *ContentRepository) Progress(ctx context.Context, userID, courseID int64) (*model.CourseProgress, error) {
	p := model.CourseProgress{CourseID: courseID}
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(l.id), COUNT(lp.lesson_id)
        FROM lessons l
        LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.user_id = $1
        WHERE l.course_id = $2
    `, userID, courseID).Scan(&p.TotalLessons, &p.CompletedLessons)
	if err != nil {
		return nil, translate(err, "course progress")
	}
	p.Percent = ProgressPercent(p.CompletedLessons, p.TotalLessons)
	return &p, nil
}

// ProgressPercent rounds to one decimal; an empty course is 0%.
func ProgressPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
