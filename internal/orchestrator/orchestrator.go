// Package orchestrator drives the conversation state machine that takes an
// attendee from an unknown visitor to a saved personalized agenda. Each
// inbound message runs exactly one phase handler; every collaborator failure
// is converted into a conversational redirect, never surfaced as raw error
// text.
package orchestrator

import (
	"context"
	"time"

	"github.com/adb1146/itc-conference-app-sub002/internal/agenda"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/metrics"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
	"github.com/adb1146/itc-conference-app-sub002/internal/session"
	"github.com/adb1146/itc-conference-app-sub002/internal/storage"
)

// Request is one inbound conversation message.
type Request struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	UserID    string `json:"userId,omitempty"`
}

// Metadata qualifies a response for the caller's UI.
type Metadata struct {
	Phase            models.Phase `json:"phase"`
	Confidence       float64      `json:"confidence"`       // 0..1
	DataCompleteness int          `json:"dataCompleteness"` // 0..100
}

// Response is the orchestrator's answer to one message.
type Response struct {
	Message    string                      `json:"message"`
	NextAction string                      `json:"nextAction,omitempty"`
	Profile    *models.EnrichedUserProfile `json:"profile,omitempty"`
	Agenda     *models.SmartAgenda         `json:"agenda,omitempty"`
	Metadata   Metadata                    `json:"metadata"`
}

// Extractor pulls identity fields and interests out of a message.
type Extractor interface {
	Extract(ctx context.Context, message string, previous models.BasicUserInfo) models.BasicUserInfo
}

// Researcher enriches collected identity data with web research.
type Researcher interface {
	Research(ctx context.Context, info models.BasicUserInfo) *models.EnrichedUserProfile
}

// AgendaPersistence is the storage surface the orchestrator needs.
type AgendaPersistence interface {
	SavePersonalizedAgenda(ctx context.Context, userID string, agenda *models.SmartAgenda) (*storage.SavedAgenda, error)
	UpdatePersonalizedAgenda(ctx context.Context, userID string, agenda *models.SmartAgenda) (*storage.SavedAgenda, error)
	HasExistingAgenda(ctx context.Context, userID string) (bool, string, error)
}

// Notifier announces a saved agenda. Implementations must be best effort.
type Notifier interface {
	AgendaSaved(ctx context.Context, info models.BasicUserInfo, agenda *models.SmartAgenda)
}

type Config struct {
	MaxBuildAttempts  int
	IncludeMeals      bool
	MaxSessionsPerDay int
}

// Orchestrator is the top-level conversation driver.
type Orchestrator struct {
	config     *Config
	sessions   *session.Store
	extractor  Extractor
	researcher Researcher
	builder    agenda.Builder
	store      AgendaPersistence
	notifier   Notifier
	logger     logger.Logger
}

func New(config *Config, sessions *session.Store, ext Extractor, res Researcher, builder agenda.Builder, store AgendaPersistence, notifier Notifier, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		config:     config,
		sessions:   sessions,
		extractor:  ext,
		researcher: res,
		builder:    builder,
		store:      store,
		notifier:   notifier,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// Invoke processes one message for one session. Turns for the same session
// serialize on a per-session lock; different sessions run concurrently.
func (o *Orchestrator) Invoke(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	unlock := o.sessions.Lock(req.SessionID)
	defer unlock()

	state, err := o.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	from := state.Phase
	state.Append("user", req.Message)

	resp := o.dispatch(ctx, req, state)

	state.Append("assistant", resp.Message)
	resp.Metadata = Metadata{
		Phase:            state.Phase,
		Confidence:       o.confidence(state),
		DataCompleteness: state.UserInfo.Completeness(),
	}

	metrics.ConversationTurns.WithLabelValues(string(from)).Inc()
	metrics.TurnDuration.WithLabelValues(string(from)).Observe(time.Since(start).Seconds())
	if state.Phase != from {
		metrics.PhaseTransitions.WithLabelValues(string(from), string(state.Phase)).Inc()
	}

	// State write failure is logged, not surfaced: the user already got a
	// coherent answer and the next turn recovers from the last good state.
	if err := o.sessions.Put(ctx, req.SessionID, state); err != nil {
		o.logger.Error("session persist failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"error":     err.Error(),
		})
	}

	o.logger.Info("turn handled", map[string]interface{}{
		"sessionId":  req.SessionID,
		"fromPhase":  string(from),
		"toPhase":    string(state.Phase),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

// ClearSession is the only explicit teardown; sessions otherwise expire by TTL.
func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	return o.sessions.Clear(ctx, sessionID)
}

// dispatch routes to the current phase's handler. The phase set is closed;
// adding a phase must extend this switch.
func (o *Orchestrator) dispatch(ctx context.Context, req Request, state *models.ConversationState) *Response {
	switch state.Phase {
	case models.PhaseGreeting:
		return o.handleGreeting(ctx, req, state)
	case models.PhaseCheckingExisting:
		return o.handleCheckingExisting(req, state)
	case models.PhaseCollectingInfo:
		return o.handleCollectingInfo(ctx, req, state)
	case models.PhaseResearching:
		return o.runResearch(ctx, state)
	case models.PhaseConfirming:
		return o.handleConfirming(ctx, req, state)
	case models.PhaseBuildingAgenda:
		return o.runBuild(ctx, req, state)
	case models.PhaseComplete:
		return o.handleComplete(req, state)
	case models.PhaseManualFallback:
		return o.handleManualFallback(state)
	default:
		// Unreachable: the session store validates phases on load.
		o.logger.Error("unknown phase, resetting", map[string]interface{}{
			"phase": string(state.Phase),
		})
		state.Phase = models.PhaseGreeting
		return o.handleGreeting(ctx, req, state)
	}
}

func (o *Orchestrator) confidence(state *models.ConversationState) float64 {
	if state.ResearchProfile != nil {
		return state.ResearchProfile.Metadata.ResearchConfidence
	}
	return float64(state.UserInfo.Completeness()) / 200
}
