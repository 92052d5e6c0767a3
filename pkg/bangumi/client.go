// Package bangumi fetches the community bangumi-data dump that the seasonal
// calendar is derived from.
package bangumi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Item is one title in the bangumi-data dump. Only the fields the calendar
// needs are decoded.
type Item struct {
	Title          string              `json:"title"`
	TitleTranslate map[string][]string `json:"titleTranslate"`
	Begin          string              `json:"begin"`
	OfficialSite   string              `json:"officialSite"`
	Type           string              `json:"type"`
}

type payload struct {
	Items []Item `json:"items"`
}

type Client struct {
	dataURL    string
	httpClient *http.Client
}

func NewClient(dataURL string) *Client {
	return &Client{
		dataURL:    dataURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchItems downloads and decodes the full dump.
func (c *Client) FetchItems(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading bangumi data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data payload
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding bangumi data: %w", err)
	}
	return data.Items, nil
}
