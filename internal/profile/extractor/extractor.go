// internal/profile/extractor/extractor.go
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/adb1146/itc-conference-app-sub002/internal/common/errors"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

var (
	ErrExtractionFailed  = errors.New("EXTRACTION_PARSE_FAILURE")
	ErrExtractionTimeout = errors.New("EXTRACTION_API_TIMEOUT")
)

const extractionInstructions = `Extract the speaker's name, company, job title, and email address from the message.
Return strict JSON: {"name": string|null, "company": string|null, "title": string|null, "email": string|null}.
Use null for anything the message does not state. Never invent values.
Examples:
"I'm Jane Doe, CTO at Acme" -> {"name":"Jane Doe","company":"Acme","title":"CTO","email":null}
"yes that's right" -> {"name":null,"company":null,"title":null,"email":null}
"reach me at jane@acme.com" -> {"name":null,"company":null,"title":null,"email":"jane@acme.com"}`

// responseSchema rejects anything but the four nullable string fields.
var responseSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"name":    map[string]interface{}{"type": []string{"string", "null"}},
		"company": map[string]interface{}{"type": []string{"string", "null"}},
		"title":   map[string]interface{}{"type": []string{"string", "null"}},
		"email":   map[string]interface{}{"type": []string{"string", "null"}},
	},
	"required": []string{"name", "company", "title", "email"},
}

var (
	nameRe    = regexp.MustCompile(`\b[Ii]'?m\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)
	companyRe = regexp.MustCompile(`\b(?:work at|from)\s+([A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*)*)`)
	emailRe   = regexp.MustCompile(`\b[\w.+-]+@[\w-]+(?:\.[\w-]+)+\b`)
)

// interestCues gate interest harvesting: only a message that is explicitly
// about interests/topics/focus gets scanned, so unrelated nouns are never
// picked up as interests.
var interestCues = []string{"interest", "topic", "focus", "passionate", "care about"}

// interestKeywords maps message keywords to canonical conference interests.
// Matching is whole-word so "ai" cannot fire inside "claims". Slice, not map,
// so extracted interests come out in a stable order.
var interestKeywords = []struct {
	pattern   *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`\bartificial intelligence\b`), "AI"},
	{regexp.MustCompile(`\bmachine learning\b`), "AI"},
	{regexp.MustCompile(`\bai\b`), "AI"},
	{regexp.MustCompile(`\bclaims\b`), "Claims"},
	{regexp.MustCompile(`\bunderwriting\b`), "Underwriting"},
	{regexp.MustCompile(`\bcyber\b`), "Cyber"},
	{regexp.MustCompile(`\bembedded\b`), "Embedded Insurance"},
	{regexp.MustCompile(`\bdistribution\b`), "Distribution"},
	{regexp.MustCompile(`\banalytics\b`), "Data & Analytics"},
	{regexp.MustCompile(`\bdata\b`), "Data & Analytics"},
	{regexp.MustCompile(`\bcustomer experience\b`), "Customer Experience"},
	{regexp.MustCompile(`\bhealth\b`), "Health Insurance"},
	{regexp.MustCompile(`\blife insurance\b`), "Life Insurance"},
	{regexp.MustCompile(`\bproperty\b`), "Property & Casualty"},
	{regexp.MustCompile(`\bcasualty\b`), "Property & Casualty"},
}

// Extractor turns a free-text user message into structured profile fields,
// combining an LLM call with a deterministic regex fallback.
type Extractor struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func New(config *Config, log logger.Logger) *Extractor {
	return &Extractor{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.With(map[string]interface{}{
			"component": "profile-extractor",
		}),
	}
}

// Extract returns the profile fields newly stated in message. Fields the model
// returns as null, and fields identical to what previous already holds, are
// omitted, so calling Extract on a message with no new information yields an
// empty result and known values can never be clobbered. The LLM path degrades
// to regex extraction on timeout, non-2xx, or malformed JSON.
func (e *Extractor) Extract(ctx context.Context, message string, previous models.BasicUserInfo) models.BasicUserInfo {
	info, err := e.extractLLM(ctx, message, previous)
	if err != nil {
		classified := error(apperrors.NewExtractionParseFailure(err.Error()))
		if errors.Is(err, ErrExtractionTimeout) {
			classified = apperrors.NewExtractionTimeout(err.Error())
		}
		e.logger.Warn("LLM extraction failed, using regex fallback", map[string]interface{}{
			"error": classified.Error(),
		})
		info = extractRegex(message)
	}

	// Keep only what is actually new.
	if info.Name == previous.Name {
		info.Name = ""
	}
	if info.Company == previous.Company {
		info.Company = ""
	}
	if info.Title == previous.Title {
		info.Title = ""
	}
	if info.Email == previous.Email {
		info.Email = ""
	}

	info.Interests = ExtractInterests(message)
	return info
}

func (e *Extractor) extractLLM(ctx context.Context, message string, previous models.BasicUserInfo) (models.BasicUserInfo, error) {
	known := map[string]string{}
	if previous.Name != "" {
		known["name"] = previous.Name
	}
	if previous.Company != "" {
		known["company"] = previous.Company
	}
	if previous.Title != "" {
		known["title"] = previous.Title
	}
	if previous.Email != "" {
		known["email"] = previous.Email
	}

	body, _ := json.Marshal(extractRequest{
		Message:      message,
		Known:        known,
		Instructions: extractionInstructions,
	})

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return models.BasicUserInfo{}, ErrExtractionTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.config.GenAIBaseURL+"/api/ai/extract-profile", bytes.NewBuffer(body))
		if err != nil {
			return models.BasicUserInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if e.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
		}

		resp, lastErr = e.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return models.BasicUserInfo{}, ErrExtractionTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil || resp == nil {
		return models.BasicUserInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.BasicUserInfo{}, fmt.Errorf("%w: decode error: %v", ErrExtractionFailed, err)
	}

	if err := validateResponse(raw); err != nil {
		return models.BasicUserInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var parsed extractResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.BasicUserInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var info models.BasicUserInfo
	if parsed.Name != nil {
		info.Name = strings.TrimSpace(*parsed.Name)
	}
	if parsed.Company != nil {
		info.Company = strings.TrimSpace(*parsed.Company)
	}
	if parsed.Title != nil {
		info.Title = strings.TrimSpace(*parsed.Title)
	}
	if parsed.Email != nil {
		info.Email = strings.TrimSpace(*parsed.Email)
	}

	e.logger.Debug("LLM extraction succeeded", map[string]interface{}{
		"hasName":    info.Name != "",
		"hasCompany": info.Company != "",
		"hasTitle":   info.Title != "",
		"hasEmail":   info.Email != "",
	})

	return info, nil
}

func validateResponse(raw json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(responseSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		descs := make([]string, len(result.Errors()))
		for i, d := range result.Errors() {
			descs[i] = d.String()
		}
		return fmt.Errorf("response failed schema: %v", descs)
	}
	return nil
}

// extractRegex is the deterministic fallback. Title extraction is not
// attempted here; that degradation is acceptable.
func extractRegex(message string) models.BasicUserInfo {
	var info models.BasicUserInfo
	if m := nameRe.FindStringSubmatch(message); m != nil {
		info.Name = m[1]
	}
	if m := companyRe.FindStringSubmatch(message); m != nil {
		info.Company = m[1]
	}
	if m := emailRe.FindString(message); m != "" {
		info.Email = m
	}
	return info
}

// ExtractInterests scans the message for known conference topics, but only
// when the message contains an interest cue word.
func ExtractInterests(message string) []string {
	lower := strings.ToLower(message)

	cued := false
	for _, cue := range interestCues {
		if strings.Contains(lower, cue) {
			cued = true
			break
		}
	}
	if !cued {
		return nil
	}

	var interests []string
	seen := map[string]bool{}
	for _, kw := range interestKeywords {
		if kw.pattern.MatchString(lower) && !seen[kw.canonical] {
			seen[kw.canonical] = true
			interests = append(interests, kw.canonical)
		}
	}
	return interests
}
