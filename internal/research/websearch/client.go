// internal/research/websearch/client.go
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

var ErrSearchTimeout = errors.New("WEB_SEARCH_TIMEOUT")

type Config struct {
	BaseURL        string
	APIKey         string
	SearchEngineID string
	Timeout        time.Duration
	MaxResults     int
	MinRelevance   float64
}

// Client performs one web search per call against a programmable search API.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func New(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.With(map[string]interface{}{
			"component": "web-search",
		}),
	}
}

// Search issues the query and returns deduplicated, relevance-sorted results,
// capped at maxResults (or the configured default when maxResults <= 0).
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.WebSearchResult, error) {
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.buildSearchURL(query, maxResults), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded ||
			errors.Is(err, context.DeadlineExceeded) ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, ErrSearchTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var apiResponse struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Mime    string `json:"mime"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []models.WebSearchResult

	for _, item := range apiResponse.Items {
		// Skip non-HTML
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		if seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		relevance := 1.0
		if strings.Contains(item.Link, ".gov") || strings.Contains(item.Link, ".edu") {
			relevance += 0.2
		}
		if strings.Contains(item.Link, "linkedin.com") {
			relevance += 0.2
		}
		if strings.Contains(strings.ToLower(item.Title), "official") {
			relevance += 0.1
		}

		if relevance >= c.config.MinRelevance {
			results = append(results, models.WebSearchResult{
				Title:     item.Title,
				URL:       item.Link,
				Snippet:   item.Snippet,
				Relevance: relevance,
				Source:    hostOf(item.Link),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	c.logger.Debug("web search completed", map[string]interface{}{
		"query":       query,
		"resultCount": len(results),
	})

	return results, nil
}

func (c *Client) buildSearchURL(query string, maxResults int) string {
	baseURL, _ := url.Parse(c.config.BaseURL)
	params := url.Values{}
	params.Add("key", c.config.APIKey)
	params.Add("cx", c.config.SearchEngineID)
	params.Add("q", query)
	params.Add("num", fmt.Sprintf("%d", maxResults))
	baseURL.RawQuery = params.Encode()
	return baseURL.String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}
