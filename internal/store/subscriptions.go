package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// Subscriptions is the durable store of recurring-search subscriptions and
// their last-seen watermarks.
type Subscriptions struct {
	pool *pgxpool.Pool
}

// NewSubscriptions returns a subscriptions store.
func NewSubscriptions(pool *pgxpool.Pool) *Subscriptions {
	return &Subscriptions{pool: pool}
}

// Add inserts a subscription. Re-subscribing with identical criteria is a
// no-op; the returned bool reports whether a new row was created. The
// watermark defaults to the creation time.
func (s *Subscriptions) Add(ctx context.Context, sub model.Subscription) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, position, salary_min, salary_max, city_id, city)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, position, city_id, salary_min, salary_max) DO NOTHING`,
		sub.UserID, sub.Position, sub.SalaryMin, sub.SalaryMax, sub.CityID, sub.City,
	)
	if err != nil {
		return false, fmt.Errorf("add subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the user's subscriptions, newest first.
func (s *Subscriptions) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, position, salary_min, salary_max,
		        COALESCE(city_id, ''), COALESCE(city, ''),
		        created_at, last_vacancy_time
		 FROM subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// All returns every subscription; the poller walks this each cycle.
func (s *Subscriptions) All(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, position, salary_min, salary_max,
		        COALESCE(city_id, ''), COALESCE(city, ''),
		        created_at, last_vacancy_time
		 FROM subscriptions`,
	)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// Remove deletes one subscription. The bool reports whether a row existed.
func (s *Subscriptions) Remove(ctx context.Context, userID, subscriptionID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND id = $2`,
		userID, subscriptionID,
	)
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Clear deletes all of the user's subscriptions.
func (s *Subscriptions) Clear(ctx context.Context, userID int64) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}
	return nil
}

// AdvanceWatermark moves the subscription's last-seen time forward in a
// single statement. A concurrent deletion makes this affect zero rows,
// which is not an error.
func (s *Subscriptions) AdvanceWatermark(ctx context.Context, subscriptionID int64, t time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET last_vacancy_time = $1 WHERE id = $2`,
		t, subscriptionID,
	); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSubscriptions(rows pgRows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.Position, &sub.SalaryMin, &sub.SalaryMax,
			&sub.CityID, &sub.City, &sub.CreatedAt, &sub.LastVacancyTime,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
