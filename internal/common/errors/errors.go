// Package errors provides the standardized failure taxonomy for the agenda
// orchestration service. Every external-call failure is converted into either
// a fallback value or a conversational redirect before it reaches the user;
// these types carry the classification that drives that conversion.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeExtractionParseFailure ErrorCode = "EXTRACTION_PARSE_FAILURE"
	ErrCodeExtractionAPITimeout   ErrorCode = "EXTRACTION_API_TIMEOUT"

	ErrCodeResearchTimeout    ErrorCode = "RESEARCH_TIMEOUT"
	ErrCodeResearchAPIFailure ErrorCode = "RESEARCH_API_FAILURE"

	ErrCodeAgendaGenerationFailed ErrorCode = "AGENDA_GENERATION_FAILED"
	ErrCodePersistenceFailure     ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeCatalogSearchFailed    ErrorCode = "CATALOG_SEARCH_FAILED"

	ErrCodeMalformedTimeString ErrorCode = "MALFORMED_TIME_STRING"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewExtractionParseFailure marks an LLM response that was not the strict JSON
// the extractor demands. Never surfaced to the user; the regex fallback runs.
func NewExtractionParseFailure(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionParseFailure,
		Message:   "LLM extraction output was not valid JSON",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionTimeout marks an LLM extraction call exceeding its hard budget.
// Same consequence as a parse failure: the regex fallback runs.
func NewExtractionTimeout(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionAPITimeout,
		Message:   "LLM extraction call timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResearchTimeout marks one research query exceeding its per-query budget.
func NewResearchTimeout(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResearchTimeout,
		Message:   "web research query timed out",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResearchAPIFailure marks a non-timeout search API failure.
func NewResearchAPIFailure(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResearchAPIFailure,
		Message:   "web search API call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgendaGenerationFailed marks a builder failure; the orchestrator turns it
// into a clarifying question, never an error page.
func NewAgendaGenerationFailed(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgendaGenerationFailed,
		Message:   "agenda builder did not produce an agenda",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailure marks a storage write failure. Logged only; the
// conversation still reports the agenda as built.
func NewPersistenceFailure(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   "agenda persistence failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
