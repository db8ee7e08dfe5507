package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foreclosure-assist/internal/model"
)

const commentColumns = `id, lesson_id, author_name, author_email, body, status, created_at, updated_at`

type CommentRepository struct {
	db *pgxpool.Pool
}

func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.Status == "" {
		c.Status = model.CommentStatusPending
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO comments (lesson_id, author_name, author_email, body, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `, c.LessonID, c.AuthorName, c.AuthorEmail, c.Body, c.Status).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "create comment")
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get comment")
	}
	return c, nil
}

// List filters by status when status is non-empty.
func (r *CommentRepository) List(ctx context.Context, status string, page Page) ([]model.Comment, error) {
	page = page.normalize()
	rows, err := r.db.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, status, page.Limit, page.Offset)
	if err != nil {
		return nil, translate(err, "list comments")
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ListApprovedByLesson is the public comment thread of a lesson.
func (r *CommentRepository) ListApprovedByLesson(ctx context.Context, lessonID int64) ([]model.Comment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE lesson_id = $1 AND status = 'approved'
        ORDER BY created_at
    `, lessonID)
	if err != nil {
		return nil, translate(err, "list lesson comments")
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CommentRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "comments", model.CommentStatuses)
}

func (r *CommentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(tag, err, "update comment status")
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return expectOne(tag, err, "delete comment")
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.LessonID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
