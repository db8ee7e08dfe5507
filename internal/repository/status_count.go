package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// countByStatus groups rows of table by status; every known status is present in the result.
// table must be a package constant, never user input.
func countByStatus(ctx context.Context, db *pgxpool.Pool, table string, statuses []string) (map[string]int, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`SELECT status, COUNT(*) FROM %s GROUP BY status`, table))
	if err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(statuses))
	for _, s := range statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
