// internal/research/websearch/client_test.go
package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
)

type searchItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Mime    string `json:"mime,omitempty"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(&Config{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		SearchEngineID: "test-cx",
		Timeout:        2 * time.Second,
		MaxResults:     5,
		MinRelevance:   0.5,
	}, logger.NewTestLogger(t))
}

func serveItems(items ...searchItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	}
}

func TestSearch_SendsCredentialsAndQuery(t *testing.T) {
	var query url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		serveItems()(w, r)
	})

	_, err := client.Search(context.Background(), "Jane Doe Acme Insurance", 3)
	require.NoError(t, err)
	assert.Equal(t, "test-key", query.Get("key"))
	assert.Equal(t, "test-cx", query.Get("cx"))
	assert.Equal(t, "Jane Doe Acme Insurance", query.Get("q"))
	assert.Equal(t, "3", query.Get("num"))
}

func TestSearch_FiltersNonHTMLResults(t *testing.T) {
	client := newTestClient(t, serveItems(
		searchItem{Link: "https://acme.com/about", Title: "About Acme"},
		searchItem{Link: "https://acme.com/report.pdf", Title: "Annual Report", Mime: "application/pdf"},
	))

	results, err := client.Search(context.Background(), "Acme", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://acme.com/about", results[0].URL)
}

func TestSearch_DeduplicatesByURL(t *testing.T) {
	client := newTestClient(t, serveItems(
		searchItem{Link: "https://acme.com/about", Title: "About Acme"},
		searchItem{Link: "https://acme.com/about", Title: "About Acme (cached)"},
	))

	results, err := client.Search(context.Background(), "Acme", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_BoostsAuthoritativeSources(t *testing.T) {
	client := newTestClient(t, serveItems(
		searchItem{Link: "https://blog.example.com/post", Title: "Some post"},
		searchItem{Link: "https://www.linkedin.com/in/jane", Title: "Jane Doe"},
		searchItem{Link: "https://naic.gov/filing", Title: "Official filing"},
	))

	results, err := client.Search(context.Background(), "Jane Doe", 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// .gov plus the "official" title keyword outranks linkedin.
	assert.Equal(t, "naic.gov", results[0].Source)
	assert.InDelta(t, 1.3, results[0].Relevance, 0.001)
	assert.Equal(t, "www.linkedin.com", results[1].Source)
	assert.InDelta(t, 1.2, results[1].Relevance, 0.001)
	assert.Equal(t, "blog.example.com", results[2].Source)
}

func TestSearch_CapsResultCount(t *testing.T) {
	client := newTestClient(t, serveItems(
		searchItem{Link: "https://a.example.com", Title: "A"},
		searchItem{Link: "https://b.example.com", Title: "B"},
		searchItem{Link: "https://c.example.com", Title: "C"},
	))

	results, err := client.Search(context.Background(), "Acme", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_DefaultsMaxResultsFromConfig(t *testing.T) {
	var query url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		serveItems()(w, r)
	})

	_, err := client.Search(context.Background(), "Acme", 0)
	require.NoError(t, err)
	assert.Equal(t, "5", query.Get("num"))
}

func TestSearch_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		serveItems()(w, r)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "Acme", 5)
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestSearch_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "Acme", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
