package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"foreclosure-assist/internal/model"
)

// countable tables; keys double as metric names
var countQueries = map[string]string{
	"responses":    `SELECT COUNT(*) FROM foreclosure_responses`,
	"assessments":  `SELECT COUNT(*) FROM risk_assessments`,
	"courses":      `SELECT COUNT(*) FROM courses`,
	"lessons":      `SELECT COUNT(*) FROM lessons`,
	"enrollments":  `SELECT COUNT(*) FROM enrollments`,
	"kb_articles":  `SELECT COUNT(*) FROM kb_articles`,
	"users":        `SELECT COUNT(*) FROM users`,
	"sms_opted_in": `SELECT COUNT(*) FROM sms_consents WHERE opted_in`,
}

// AnalyticsRepository runs the read-only counts behind the master dashboard.
type AnalyticsRepository struct {
	db *pgxpool.Pool
}

func NewAnalyticsRepository(db *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountMetrics lists the names accepted by Count.
func CountMetrics() []string {
	return []string{"responses", "assessments", "courses", "lessons", "enrollments", "kb_articles", "users", "sms_opted_in"}
}

func (r *AnalyticsRepository) Count(ctx context.Context, metric string) (int, error) {
	q, ok := countQueries[metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
	var n int
	if err := r.db.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", metric, err)
	}
	return n, nil
}

// AssessmentsByLevel counts risk assessments per level.
func (r *AnalyticsRepository) AssessmentsByLevel(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT level, COUNT(*) FROM risk_assessments GROUP BY level`)
	if err != nil {
		return nil, fmt.Errorf("count assessments by level: %w", err)
	}
	defer rows.Close()

	out := map[string]int{"low": 0, "medium": 0, "high": 0}
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, err
		}
		out[level] = n
	}
	return out, rows.Err()
}

// ResponsesPerDay returns new responses per UTC day for the last days days, oldest first.
func (r *AnalyticsRepository) ResponsesPerDay(ctx context.Context, days int) ([]model.DailyCount, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	rows, err := r.db.Query(ctx, `
        SELECT to_char(d::date, 'YYYY-MM-DD'), COUNT(fr.id)
        FROM generate_series((NOW() AT TIME ZONE 'UTC')::date - ($1::int - 1), (NOW() AT TIME ZONE 'UTC')::date, '1 day') AS d
        LEFT JOIN foreclosure_responses fr ON (fr.created_at AT TIME ZONE 'UTC')::date = d::date
        GROUP BY d
        ORDER BY d
    `, days)
	if err != nil {
		return nil, fmt.Errorf("responses per day: %w", err)
	}
	defer rows.Close()

	out := []model.DailyCount{}
	for rows.Next() {
		var dc model.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
