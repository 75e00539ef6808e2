// Package geo implements reverse geocoding via the Nominatim
// (OpenStreetMap) API: coordinates in, city name out.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoCity is returned when the coordinates do not resolve to a settlement.
var ErrNoCity = fmt.Errorf("no city at location")

// Client calls the Nominatim reverse-geocoding endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a geocoding client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// reverseResponse mirrors the Nominatim reverse JSON response.
type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
	} `json:"address"`
}

// CityByLocation resolves coordinates to a city name. Towns and villages
// count as cities; anything smaller yields ErrNoCity.
func (c *Client) CityByLocation(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned %d: %s", resp.StatusCode, string(body))
	}

	var rev reverseResponse
	if err := json.Unmarshal(body, &rev); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}

	switch {
	case rev.Address.City != "":
		return rev.Address.City, nil
	case rev.Address.Town != "":
		return rev.Address.Town, nil
	case rev.Address.Village != "":
		return rev.Address.Village, nil
	}
	return "", ErrNoCity
}
