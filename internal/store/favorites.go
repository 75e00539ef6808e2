package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// ErrNotFound is returned when a requested record is missing or belongs to
// another user.
var ErrNotFound = fmt.Errorf("record not found")

// Favorites is the durable store of saved vacancies.
type Favorites struct {
	pool *pgxpool.Pool
}

// NewFavorites returns a favorites store.
func NewFavorites(pool *pgxpool.Pool) *Favorites {
	return &Favorites{pool: pool}
}

// Add saves a vacancy for the user. Saving the same vacancy twice keeps
// one row; the bool reports whether a new row was created.
func (f *Favorites) Add(ctx context.Context, userID int64, v model.Vacancy) (bool, error) {
	tag, err := f.pool.Exec(ctx,
		`INSERT INTO favorites (user_id, vacancy_id, title, company, salary_from,
		                        salary_to, currency, city, url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, vacancy_id) DO NOTHING`,
		userID, v.ID, v.Title, v.Company, v.SalaryFrom, v.SalaryTo, v.Currency, v.City, v.URL,
	)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the user's favorites, newest first.
func (f *Favorites) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	rows, err := f.pool.Query(ctx,
		`SELECT id, user_id, vacancy_id, title, COALESCE(company, ''),
		        salary_from, salary_to, COALESCE(currency, ''), COALESCE(city, ''),
		        url, created_at
		 FROM favorites
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favs []model.Favorite
	for rows.Next() {
		var fav model.Favorite
		if err := rows.Scan(
			&fav.ID, &fav.UserID, &fav.VacancyID, &fav.Title, &fav.Company,
			&fav.SalaryFrom, &fav.SalaryTo, &fav.Currency, &fav.City,
			&fav.URL, &fav.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, fav)
	}
	return favs, rows.Err()
}

// Remove deletes one favorite by its row ID. Returns ErrNotFound when no
// such favorite exists for the user.
func (f *Favorites) Remove(ctx context.Context, userID, favoriteID int64) error {
	tag, err := f.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND id = $2`,
		userID, favoriteID,
	)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
