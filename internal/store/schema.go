// Package store implements the durable records: favorites, subscriptions,
// search history and analytics snapshots, all on PostgreSQL via pgxpool.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS favorites (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		vacancy_id TEXT NOT NULL,
		title TEXT NOT NULL,
		company TEXT,
		salary_from INTEGER,
		salary_to INTEGER,
		currency TEXT,
		city TEXT,
		url TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, vacancy_id)
	)`,
	// NULLS NOT DISTINCT (PostgreSQL 15+): default unique indexes treat
	// NULLs as distinct, which would let unset salary bounds slip past the
	// criteria key on every re-subscribe.
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		position TEXT NOT NULL,
		salary_min INTEGER,
		salary_max INTEGER,
		city_id TEXT,
		city TEXT,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		last_vacancy_time TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		UNIQUE NULLS NOT DISTINCT (user_id, position, city_id, salary_min, salary_max)
	)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		position TEXT NOT NULL,
		city TEXT NOT NULL,
		salary_range TEXT,
		vacancies_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS analytics (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		position TEXT NOT NULL,
		city TEXT NOT NULL,
		avg_salary DOUBLE PRECISION NOT NULL,
		vacancies_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Init creates the tables if they do not exist yet.
func Init(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range schema {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return nil
}
