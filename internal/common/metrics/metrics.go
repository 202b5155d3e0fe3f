// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_conversation_turns_total",
			Help: "Total conversation turns processed, by phase handled",
		},
		[]string{"phase"},
	)

	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_phase_transitions_total",
			Help: "Phase transitions taken by the conversation state machine",
		},
		[]string{"from", "to"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "orchestrator_turn_duration_seconds",
			Help: "Duration of one message-handling turn",
		},
		[]string{"phase"},
	)

	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_detected_total",
			Help: "Pairwise schedule conflicts found, by priority",
		},
		[]string{"priority"},
	)

	ResearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_queries_total",
			Help: "Web research queries issued, by outcome",
		},
		[]string{"outcome"},
	)

	AgendaBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_builds_total",
			Help: "Agenda build attempts, by result",
		},
		[]string{"result"},
	)
)
