package geo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kirill-Eltsov/JobHunter/internal/geo"
)

func TestCityByLocation_SettlementFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"city", `{"address": {"city": "Kazan", "town": "Ignored"}}`, "Kazan"},
		{"town", `{"address": {"town": "Zelenodolsk"}}`, "Zelenodolsk"},
		{"village", `{"address": {"village": "Vasilyevo"}}`, "Vasilyevo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/reverse" {
					t.Errorf("path = %q, want /reverse", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("lat") != "55.79" || q.Get("lon") != "49.12" || q.Get("format") != "json" {
					t.Errorf("query = %v", q)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			city, err := geo.NewClient(srv.URL).CityByLocation(context.Background(), 55.79, 49.12)
			if err != nil {
				t.Fatalf("CityByLocation returned unexpected error: %v", err)
			}
			if city != tc.want {
				t.Errorf("city = %q, want %q", city, tc.want)
			}
		})
	}
}

func TestCityByLocation_NoSettlement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {"state": "Atlantic Ocean"}}`))
	}))
	defer srv.Close()

	if _, err := geo.NewClient(srv.URL).CityByLocation(context.Background(), 0, 0); err != geo.ErrNoCity {
		t.Errorf("error = %v, want ErrNoCity", err)
	}
}

func TestCityByLocation_UpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := geo.NewClient(srv.URL).CityByLocation(context.Background(), 55.79, 49.12); err == nil {
		t.Error("CityByLocation should fail on a non-200 response")
	}
}
