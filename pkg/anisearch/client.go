// Package anisearch is a thin client for the torrent search API. Given the
// configured keywords it returns raw resource candidates; all selection logic
// lives with the caller.
package anisearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bangumarr/bangumarr/pkg/models"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultPageSize = 30
)

type Config struct {
	BaseURL  string
	PageSize int
	Client   *http.Client
}

type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search API URL is required")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		pageSize:   pageSize,
		httpClient: httpClient,
	}, nil
}

type searchResponse struct {
	Resources []resource `json:"resources"`
}

type resource struct {
	Title  string `json:"title"`
	Magnet string `json:"magnet"`
}

// Search queries the API for the first page of resources matching all the
// given keywords. Result order is preserved as returned by the API.
func (c *Client) Search(ctx context.Context, keywords []string) ([]models.Resource, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	for _, key := range keywords {
		params.Add("search", key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]models.Resource, 0, len(payload.Resources))
	for _, r := range payload.Resources {
		results = append(results, models.Resource{Title: r.Title, Magnet: r.Magnet})
	}
	return results, nil
}
