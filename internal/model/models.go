// Package model defines shared data structures for the bot service.
package model

import "time"

// Vacancy is a normalised job listing fetched from the external search API.
// All loosely-typed API payloads are converted to this struct at the boundary.
type Vacancy struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	City        string `json:"city"`
	SalaryFrom  *int   `json:"salaryFrom,omitempty"`
	SalaryTo    *int   `json:"salaryTo,omitempty"`
	Currency    string `json:"currency,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// SearchQuery is a finalised vacancy search request.
type SearchQuery struct {
	Text         string
	AreaID       string
	SalaryFrom   *int
	SalaryTo     *int
	PerPage      int
	CreatedAfter *time.Time
}

// SearchResult is the outcome of one vacancy search.
// Found is the upstream total, which may exceed len(Items).
type SearchResult struct {
	Items []Vacancy
	Found int
}

// Subscription mirrors a subscriptions table row.
// LastVacancyTime is the watermark: the poller only reports listings
// published after it.
type Subscription struct {
	ID              int64
	UserID          int64
	Position        string
	CityID          string
	City            string
	SalaryMin       *int
	SalaryMax       *int
	CreatedAt       time.Time
	LastVacancyTime time.Time
}

// Favorite mirrors a favorites table row.
type Favorite struct {
	ID         int64
	UserID     int64
	VacancyID  string
	Title      string
	Company    string
	SalaryFrom *int
	SalaryTo   *int
	Currency   string
	City       string
	URL        string
	CreatedAt  time.Time
}

// HistoryEntry mirrors a search_history table row (append-only).
type HistoryEntry struct {
	ID          int64
	UserID      int64
	Position    string
	City        string
	SalaryRange string
	Count       int
	CreatedAt   time.Time
}

// AnalyticsSnapshot holds descriptive statistics for one executed search.
type AnalyticsSnapshot struct {
	UserID    int64
	Position  string
	City      string
	AvgSalary float64
	Count     int
	CreatedAt time.Time
}
