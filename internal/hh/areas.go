package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAreaNotFound is returned when a city name does not resolve to any
// area known to the search API.
var ErrAreaNotFound = fmt.Errorf("area not found")

const areaCacheTTL = 24 * time.Hour

// AreaResolver maps free-text city names to HeadHunter area identifiers.
// Resolved names are cached in Redis since users pick the same handful of
// cities over and over.
type AreaResolver struct {
	baseURL string
	client  *http.Client
	rdb     *redis.Client
}

// NewAreaResolver constructs an AreaResolver. rdb may be nil, in which case
// every lookup goes to the API.
func NewAreaResolver(baseURL string, rdb *redis.Client) *AreaResolver {
	return &AreaResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
		rdb:     rdb,
	}
}

// suggestsResponse mirrors the /suggests/areas JSON response.
type suggestsResponse struct {
	Items []suggestsItem `json:"items"`
}

type suggestsItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Resolve maps a city name to its area ID. Returns ErrAreaNotFound when the
// API has no suggestion for the name.
func (r *AreaResolver) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrAreaNotFound
	}

	cacheKey := "areas:" + strings.ToLower(name)
	if r.rdb != nil {
		if id, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil && id != "" {
			return id, nil
		}
	}

	params := url.Values{}
	params.Set("text", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.baseURL+"/suggests/areas?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hh returned %d: %s", resp.StatusCode, string(body))
	}

	var suggests suggestsResponse
	if err := json.Unmarshal(body, &suggests); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}
	if len(suggests.Items) == 0 {
		return "", ErrAreaNotFound
	}

	id := suggests.Items[0].ID
	if r.rdb != nil {
		if err := r.rdb.Set(ctx, cacheKey, id, areaCacheTTL).Err(); err != nil {
			slog.Warn("area cache write failed", "city", name, "err", err)
		}
	}
	return id, nil
}
