package model

import "time"

// 评论审核状态
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
	CommentStatusSpam     = "spam"
)

var CommentStatuses = []string{
	CommentStatusPending,
	CommentStatusApproved,
	CommentStatusRejected,
	CommentStatusSpam,
}

type Comment struct {
	ID          int64     `json:"id"`
	LessonID    *int64    `json:"lesson_id,omitempty"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
