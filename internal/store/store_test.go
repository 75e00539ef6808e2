package store

import (
	"strings"
	"testing"
)

// The criteria key must dedupe re-subscriptions even when a salary bound is
// unset: with a plain UNIQUE index Postgres treats NULL bounds as distinct
// and the insert's conflict target never fires, so "Not important" and
// "More than N" subscriptions would duplicate on every re-subscribe.
func TestSchema_SubscriptionCriteriaKeyDedupesNullBounds(t *testing.T) {
	var subscriptions string
	for _, ddl := range schema {
		if strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS subscriptions") {
			subscriptions = ddl
			break
		}
	}
	if subscriptions == "" {
		t.Fatal("no subscriptions DDL in the schema")
	}

	if !strings.Contains(subscriptions,
		"UNIQUE NULLS NOT DISTINCT (user_id, position, city_id, salary_min, salary_max)") {
		t.Error("subscriptions criteria key must be UNIQUE NULLS NOT DISTINCT over (user_id, position, city_id, salary_min, salary_max)")
	}
}

func TestClampHistoryPage(t *testing.T) {
	cases := []struct {
		name    string
		page    int
		total   int
		perPage int
		want    int
	}{
		{"zero page", 0, 12, 5, 1},
		{"negative page", -3, 12, 5, 1},
		{"first page", 1, 12, 5, 1},
		{"last page", 3, 12, 5, 3},
		{"past the end", 9, 12, 5, 3},
		{"empty history", 4, 0, 5, 1},
		{"exact multiple", 3, 10, 5, 2},
	}
	for _, c := range cases {
		if got := clampHistoryPage(c.page, c.total, c.perPage); got != c.want {
			t.Errorf("%s: clampHistoryPage(%d, %d, %d) = %d, want %d",
				c.name, c.page, c.total, c.perPage, got, c.want)
		}
	}
}
