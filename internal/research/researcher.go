// internal/research/researcher.go
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/adb1146/itc-conference-app-sub002/internal/common/errors"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/metrics"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
	"github.com/adb1146/itc-conference-app-sub002/internal/research/websearch"
)

// Searcher is the research collaborator contract.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.WebSearchResult, error)
}

type Config struct {
	QueryTimeout    time.Duration
	ResultsPerQuery int
}

func DefaultConfig() *Config {
	return &Config{
		QueryTimeout:    5 * time.Second,
		ResultsPerQuery: 3,
	}
}

// Researcher enriches a basic profile by fanning web searches out in parallel
// and feeding whatever settles into a rule-based inference step.
type Researcher struct {
	config   *Config
	searcher Searcher
	logger   logger.Logger
}

func New(config *Config, searcher Searcher, log logger.Logger) *Researcher {
	return &Researcher{
		config:   config,
		searcher: searcher,
		logger: log.With(map[string]interface{}{
			"component": "researcher",
		}),
	}
}

// Research runs every query concurrently, each with its own timeout, and never
// lets one failure abort the others. Total failure yields a degraded profile,
// not an error; the conversation asks the user directly instead.
func (r *Researcher) Research(ctx context.Context, info models.BasicUserInfo) *models.EnrichedUserProfile {
	queries := buildQueries(info)

	type settled struct {
		index   int
		results []models.WebSearchResult
		err     error
	}

	ch := make(chan settled, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(index int, query string) {
			defer wg.Done()
			qctx, cancel := context.WithTimeout(ctx, r.config.QueryTimeout)
			defer cancel()
			results, err := r.searcher.Search(qctx, query, r.config.ResultsPerQuery)
			ch <- settled{index: index, results: results, err: err}
		}(i, q)
	}

	wg.Wait()
	close(ch)

	perQuery := make([][]models.WebSearchResult, len(queries))
	failed := 0
	for s := range ch {
		if s.err != nil {
			failed++
			outcome := "error"
			classified := error(apperrors.NewResearchAPIFailure(s.err))
			if errors.Is(s.err, websearch.ErrSearchTimeout) || errors.Is(s.err, context.DeadlineExceeded) {
				outcome = "timeout"
				classified = apperrors.NewResearchTimeout(queries[s.index])
			}
			metrics.ResearchQueries.WithLabelValues(outcome).Inc()
			r.logger.Warn("research query failed", map[string]interface{}{
				"query": queries[s.index],
				"error": classified.Error(),
			})
			continue
		}
		metrics.ResearchQueries.WithLabelValues("ok").Inc()
		perQuery[s.index] = s.results
	}

	var results []models.WebSearchResult
	for _, rs := range perQuery {
		results = append(results, rs...)
	}

	researchCtx := models.ResearchContext{
		Queries:       queries,
		Results:       results,
		FailedQueries: failed,
	}
	if info.Company != "" {
		researchCtx.CompanyIntel = summarize(results, info.Company)
	}
	if info.Name != "" {
		researchCtx.PersonIntel = summarize(results, info.Name)
	}

	confidence := 0.0
	if len(queries) > 0 {
		confidence = float64(len(queries)-failed) / float64(len(queries))
	}

	profile := &models.EnrichedUserProfile{
		BasicInfo:       info,
		Inferred:        infer(info, results),
		Research:        researchCtx,
		Recommendations: recommend(info),
		Metadata: models.ProfileMetadata{
			ResearchConfidence: confidence,
			DataCompleteness:   completeness(info, results),
			LastUpdated:        time.Now().UTC(),
		},
	}

	r.logger.Info("research pass completed", map[string]interface{}{
		"queries":    len(queries),
		"failed":     failed,
		"results":    len(results),
		"confidence": confidence,
	})

	return profile
}

func buildQueries(info models.BasicUserInfo) []string {
	var queries []string
	if info.Name != "" && info.Company != "" {
		queries = append(queries, fmt.Sprintf("%s %s", info.Name, info.Company))
	}
	if info.Company != "" {
		queries = append(queries, fmt.Sprintf("%s insurance technology", info.Company))
	}
	if info.Title != "" && info.Company != "" {
		queries = append(queries, fmt.Sprintf("%s priorities %s", info.Title, info.Company))
	}
	if len(queries) == 0 && info.Name != "" {
		queries = append(queries, info.Name)
	}
	return queries
}

// summarize picks the best snippet that mentions the subject.
func summarize(results []models.WebSearchResult, subject string) string {
	lower := strings.ToLower(subject)
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Title), lower) ||
			strings.Contains(strings.ToLower(r.Snippet), lower) {
			return r.Snippet
		}
	}
	return ""
}

// infer is the rule-based reading of who the attendee is. It runs on whatever
// research settled; with zero results it still classifies from title alone.
func infer(info models.BasicUserInfo, results []models.WebSearchResult) models.ProfileInference {
	inference := models.ProfileInference{
		LikelyInterests: append([]string{}, info.Interests...),
	}

	title := strings.ToLower(info.Title)
	switch {
	case strings.Contains(title, "chief"), strings.HasPrefix(title, "c") && len(title) == 3,
		strings.Contains(title, "founder"), strings.Contains(title, "president"):
		inference.Seniority = "executive"
	case strings.Contains(title, "vp"), strings.Contains(title, "vice president"),
		strings.Contains(title, "head"), strings.Contains(title, "director"):
		inference.Seniority = "senior"
	case strings.Contains(title, "manager"), strings.Contains(title, "lead"):
		inference.Seniority = "mid"
	case title != "":
		inference.Seniority = "practitioner"
	}

	switch {
	case strings.Contains(title, "claims"):
		inference.Role = "claims"
		inference.FocusAreas = append(inference.FocusAreas, "Claims")
	case strings.Contains(title, "underwrit"):
		inference.Role = "underwriting"
		inference.FocusAreas = append(inference.FocusAreas, "Underwriting")
	case strings.Contains(title, "product"):
		inference.Role = "product"
	case strings.Contains(title, "engineer"), strings.Contains(title, "cto"),
		strings.Contains(title, "technology"), strings.Contains(title, "data"):
		inference.Role = "technology"
		inference.FocusAreas = append(inference.FocusAreas, "AI", "Data & Analytics")
	case strings.Contains(title, "sales"), strings.Contains(title, "distribution"),
		strings.Contains(title, "growth"):
		inference.Role = "distribution"
		inference.FocusAreas = append(inference.FocusAreas, "Distribution")
	}

	blob := strings.ToLower(allText(results))
	switch {
	case strings.Contains(blob, "insurtech"), strings.Contains(blob, "startup"):
		inference.CompanyType = "insurtech"
	case strings.Contains(blob, "carrier"), strings.Contains(blob, "insurer"),
		strings.Contains(blob, "insurance company"):
		inference.CompanyType = "carrier"
	case strings.Contains(blob, "broker"), strings.Contains(blob, "agency"):
		inference.CompanyType = "broker"
	}

	for _, focus := range inference.FocusAreas {
		found := false
		for _, have := range inference.LikelyInterests {
			if have == focus {
				found = true
				break
			}
		}
		if !found {
			inference.LikelyInterests = append(inference.LikelyInterests, focus)
		}
	}

	return inference
}

func allText(results []models.WebSearchResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.Title)
		b.WriteString(" ")
		b.WriteString(r.Snippet)
		b.WriteString(" ")
	}
	return b.String()
}

func recommend(info models.BasicUserInfo) []string {
	var recs []string
	for _, interest := range info.Interests {
		recs = append(recs, fmt.Sprintf("Prioritize %s track sessions", interest))
	}
	if len(recs) == 0 {
		recs = append(recs, "Mix keynotes with smaller breakout sessions to cover more ground")
	}
	return recs
}

func completeness(info models.BasicUserInfo, results []models.WebSearchResult) int {
	score := info.Completeness()
	if len(results) > 0 && score > 25 {
		// Research found something; identity fields corroborated.
		score = min(score+10, 100)
	}
	return score
}
