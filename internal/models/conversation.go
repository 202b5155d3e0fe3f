// internal/models/conversation.go
package models

import "time"

// Phase is one named state of the conversation state machine. The set is
// closed; dispatch sites switch exhaustively over these values.
type Phase string

const (
	PhaseGreeting         Phase = "greeting"
	PhaseCheckingExisting Phase = "checking_existing"
	PhaseCollectingInfo   Phase = "collecting_info"
	PhaseResearching      Phase = "researching"
	PhaseConfirming       Phase = "confirming_profile"
	PhaseBuildingAgenda   Phase = "building_agenda"
	PhaseComplete         Phase = "complete"
	// PhaseManualFallback is entered after repeated agenda build failures so the
	// conversation never loops indefinitely between building and collecting.
	PhaseManualFallback Phase = "manual_fallback"
)

// Valid reports whether p is a known phase value.
func (p Phase) Valid() bool {
	switch p {
	case PhaseGreeting, PhaseCheckingExisting, PhaseCollectingInfo,
		PhaseResearching, PhaseConfirming, PhaseBuildingAgenda,
		PhaseComplete, PhaseManualFallback:
		return true
	}
	return false
}

// Message is one turn of the conversation transcript.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is the per-session state machine record. Lifetime is one
// conversational session keyed by sessionId; created lazily on first message.
type ConversationState struct {
	Phase             Phase                `json:"phase"`
	UserInfo          BasicUserInfo        `json:"userInfo"`
	ResearchProfile   *EnrichedUserProfile `json:"researchProfile,omitempty"`
	AgendaBuilt       bool                 `json:"agendaBuilt"`
	HasExistingAgenda bool                 `json:"hasExistingAgenda,omitempty"`
	ExistingAgendaID  string               `json:"existingAgendaId,omitempty"`
	UserWantsUpdate   bool                 `json:"userWantsUpdate,omitempty"`
	BuildAttempts     int                  `json:"buildAttempts"`
	Messages          []Message            `json:"messages"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// NewConversationState returns a fresh greeting-phase state.
func NewConversationState() *ConversationState {
	return &ConversationState{
		Phase:    PhaseGreeting,
		Messages: []Message{},
	}
}

// Append records a transcript turn.
func (s *ConversationState) Append(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}
