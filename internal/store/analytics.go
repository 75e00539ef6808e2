package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// Analytics stores descriptive statistics snapshots per executed search.
type Analytics struct {
	pool *pgxpool.Pool
}

// NewAnalytics returns an analytics store.
func NewAnalytics(pool *pgxpool.Pool) *Analytics {
	return &Analytics{pool: pool}
}

// Save persists one snapshot.
func (a *Analytics) Save(ctx context.Context, s model.AnalyticsSnapshot) error {
	if _, err := a.pool.Exec(ctx,
		`INSERT INTO analytics (user_id, position, city, avg_salary, vacancies_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.UserID, s.Position, s.City, s.AvgSalary, s.Count,
	); err != nil {
		return fmt.Errorf("save analytics: %w", err)
	}
	return nil
}

// Latest returns the user's most recent snapshot, or ErrNotFound when the
// user has never run a search that produced one.
func (a *Analytics) Latest(ctx context.Context, userID int64) (*model.AnalyticsSnapshot, error) {
	var s model.AnalyticsSnapshot
	err := a.pool.QueryRow(ctx,
		`SELECT user_id, position, city, avg_salary, vacancies_count, created_at
		 FROM analytics
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&s.UserID, &s.Position, &s.City, &s.AvgSalary, &s.Count, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest analytics: %w", err)
	}
	return &s, nil
}
