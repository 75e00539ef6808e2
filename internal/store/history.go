package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// History is the append-only store of executed searches.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory returns a search-history store.
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// Append records one executed search.
func (h *History) Append(ctx context.Context, e model.HistoryEntry) error {
	if _, err := h.pool.Exec(ctx,
		`INSERT INTO search_history (user_id, position, city, salary_range, vacancies_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.Position, e.City, e.SalaryRange, e.Count,
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Page returns one page of the user's history, newest first, along with the
// total entry count so the caller can render page navigation.
func (h *History) Page(ctx context.Context, userID int64, page, perPage int) ([]model.HistoryEntry, int, error) {
	var total int
	if err := h.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_history WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}
	page = clampHistoryPage(page, total, perPage)

	rows, err := h.pool.Query(ctx,
		`SELECT id, user_id, position, city, COALESCE(salary_range, ''), vacancies_count, created_at
		 FROM search_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Position, &e.City, &e.SalaryRange, &e.Count, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// clampHistoryPage bounds a requested page to [1, last]. History shrinks
// only by retention, but a stale navigation callback can still ask for a
// page past the end; it lands on the final page instead of an empty one.
func clampHistoryPage(page, total, perPage int) int {
	if page < 1 {
		return 1
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	if page > last {
		return last
	}
	return page
}
