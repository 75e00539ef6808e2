// Package hh implements the HeadHunter REST API clients: vacancy search,
// related vacancies and city (area) resolution.
package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"time"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

const (
	httpTimeout = 15 * time.Second

	// dateFromLayout is the timestamp format the vacancies endpoint
	// accepts for the date_from filter: "YYYY-MM-DDThh:mm:ss±hhmm".
	dateFromLayout = "2006-01-02T15:04:05-0700"
)

// Client fetches vacancies from the HeadHunter public API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// searchResponse mirrors the top-level vacancies JSON response.
type searchResponse struct {
	Items []searchItem `json:"items"`
	Found int          `json:"found"`
}

// searchItem mirrors a single vacancy listing.
type searchItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	AlternateURL string      `json:"alternate_url"`
	Salary       *itemSalary `json:"salary"`
	Employer     itemNamed   `json:"employer"`
	Area         itemNamed   `json:"area"`
	PublishedAt  string      `json:"published_at"`
}

type itemSalary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

type itemNamed struct {
	Name string `json:"name"`
}

// Search runs one vacancy search. The query's optional fields map to
// optional request parameters; CreatedAfter becomes the date_from filter
// used by the subscription poller.
func (c *Client) Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	params := url.Values{}
	params.Set("text", q.Text)
	if q.AreaID != "" {
		params.Set("area", q.AreaID)
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.SalaryFrom != nil {
		params.Set("salary", strconv.Itoa(*q.SalaryFrom))
		params.Set("only_with_salary", "true")
	}
	if q.CreatedAfter != nil {
		params.Set("date_from", q.CreatedAfter.Format(dateFromLayout))
	}

	var resp searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/vacancies?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	return &model.SearchResult{
		Items: normalize(resp.Items, q.SalaryTo),
		Found: resp.Found,
	}, nil
}

// Related returns vacancies similar to the given vacancy.
func (c *Client) Related(ctx context.Context, vacancyID string, perPage int) (*model.SearchResult, error) {
	params := url.Values{}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	endpoint := fmt.Sprintf("%s/vacancies/%s/related_vacancies?%s",
		c.baseURL, url.PathEscape(vacancyID), params.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return &model.SearchResult{
		Items: normalize(resp.Items, nil),
		Found: resp.Found,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hh returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// normalize converts raw API items to model.Vacancy. The API has no upper
// salary bound parameter, so when the caller set one, listings whose lower
// bound already exceeds it are filtered out here.
func normalize(items []searchItem, salaryTo *int) []model.Vacancy {
	vacancies := make([]model.Vacancy, 0, len(items))
	for _, it := range items {
		v := model.Vacancy{
			ID:          it.ID,
			Title:       it.Name,
			Company:     it.Employer.Name,
			City:        it.Area.Name,
			URL:         it.AlternateURL,
			PublishedAt: it.PublishedAt,
		}
		if it.Salary != nil {
			v.SalaryFrom = it.Salary.From
			v.SalaryTo = it.Salary.To
			v.Currency = it.Salary.Currency
		}
		if salaryTo != nil && v.SalaryFrom != nil && *v.SalaryFrom > *salaryTo {
			continue
		}
		vacancies = append(vacancies, v)
	}
	return vacancies
}
