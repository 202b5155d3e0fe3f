// internal/profile/extractor/extractor_test.go
package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

func testConfig(url string) *Config {
	return &Config{
		GenAIBaseURL: url,
		APIKey:       "test-api-key",
		Timeout:      2 * time.Second,
		MaxRetries:   1,
	}
}

func TestExtract_LLMSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/extract-profile", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Jane Doe","company":"Acme","title":"CTO","email":"jane@acme.com"}`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "I'm Jane Doe, CTO at Acme", models.BasicUserInfo{})

	assert.Equal(t, "Jane Doe", info.Name)
	assert.Equal(t, "Acme", info.Company)
	assert.Equal(t, "CTO", info.Title)
	assert.Equal(t, "jane@acme.com", info.Email)
}

func TestExtract_EchoedEmailDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":null,"company":null,"title":null,"email":"jane@acme.com"}`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "send it to jane@acme.com", models.BasicUserInfo{Email: "jane@acme.com"})

	assert.Empty(t, info.Email, "echoed email is not new information")
}

func TestExtract_IdempotentOnConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Model correctly returns nulls for a message with no new facts.
		w.Write([]byte(`{"name":null,"company":null,"title":null,"email":null}`))
	}))
	defer server.Close()

	previous := models.BasicUserInfo{Name: "Jane Doe", Company: "Acme", Title: "CTO"}

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "yes that's right", previous)

	assert.Empty(t, info.Name)
	assert.Empty(t, info.Company)
	assert.Empty(t, info.Title)

	previous.Merge(info)
	assert.Equal(t, "Jane Doe", previous.Name)
	assert.Equal(t, "Acme", previous.Company)
	assert.Equal(t, "CTO", previous.Title)
}

func TestExtract_EchoedKnownFieldsDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Model echoes back fields it already knew; only the name is new.
		w.Write([]byte(`{"name":"Bob","company":"Acme","title":null,"email":null}`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "I'm Bob", models.BasicUserInfo{Company: "Acme"})

	assert.Equal(t, "Bob", info.Name)
	assert.Empty(t, info.Company, "echoed company is not new information")
}

func TestExtract_FallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "Hi, I'm Jane Doe and I work at Swiss Re", models.BasicUserInfo{})

	assert.Equal(t, "Jane Doe", info.Name)
	assert.Equal(t, "Swiss Re", info.Company)
	assert.Empty(t, info.Title, "fallback does not attempt titles")
}

func TestExtract_FallbackOnMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`Sure! The name is Jane Doe.`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "I'm Bob from Acme", models.BasicUserInfo{})

	assert.Equal(t, "Bob", info.Name)
	assert.Equal(t, "Acme", info.Company)
}

func TestExtract_FallbackOnSchemaViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON, wrong shape: missing required fields.
		w.Write([]byte(`{"fullName":"Jane Doe"}`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info := e.Extract(context.Background(), "I'm Bob", models.BasicUserInfo{})

	assert.Equal(t, "Bob", info.Name)
}

func TestExtractLLM_Timeout(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer server.Close()
	defer close(done)

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond

	e := New(cfg, logger.NewTestLogger(t))
	_, err := e.extractLLM(context.Background(), "test", models.BasicUserInfo{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionTimeout)
}

func TestExtractLLM_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"name":"Jane Doe","company":null,"title":null,"email":null}`))
	}))
	defer server.Close()

	e := New(testConfig(server.URL), logger.NewTestLogger(t))
	info, err := e.extractLLM(context.Background(), "I'm Jane Doe", models.BasicUserInfo{})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Jane Doe", info.Name)
}

func TestExtractRegex(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantName    string
		wantCompany string
		wantEmail   string
	}{
		{
			name:     "contracted introduction",
			message:  "I'm Jane Doe",
			wantName: "Jane Doe",
		},
		{
			name:     "single name",
			message:  "i'm Bob",
			wantName: "Bob",
		},
		{
			name:        "work at",
			message:     "I work at Munich Re",
			wantCompany: "Munich Re",
		},
		{
			name:        "from",
			message:     "Hello from Lemonade",
			wantCompany: "Lemonade",
		},
		{
			name:        "both",
			message:     "I'm Jane Doe and I work at Acme",
			wantName:    "Jane Doe",
			wantCompany: "Acme",
		},
		{
			name:      "email address",
			message:   "you can reach me at jane.doe+conf@acme-corp.com",
			wantEmail: "jane.doe+conf@acme-corp.com",
		},
		{
			name:    "nothing to extract",
			message: "yes that sounds great",
		},
		{
			name:    "lowercase company not matched",
			message: "I work at the office",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := extractRegex(tt.message)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantCompany, info.Company)
			assert.Equal(t, tt.wantEmail, info.Email)
		})
	}
}

func TestExtractInterests(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "cued message with topics",
			message: "My main interests are AI and claims automation",
			want:    []string{"AI", "Claims"},
		},
		{
			name:    "no cue word means no harvesting",
			message: "We use AI for claims at my company",
			want:    nil,
		},
		{
			name:    "keyword inside another word does not fire",
			message: "I'm interested in fair pricing",
			want:    nil,
		},
		{
			name:    "multiword keyword",
			message: "my focus is customer experience and underwriting",
			want:    []string{"Underwriting", "Customer Experience"},
		},
		{
			name:    "duplicate canonical collapses",
			message: "topics: machine learning and artificial intelligence",
			want:    []string{"AI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractInterests(tt.message))
		})
	}
}
