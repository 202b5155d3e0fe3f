// internal/orchestrator/handlers.go
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adb1146/itc-conference-app-sub002/internal/agenda"
	apperrors "github.com/adb1146/itc-conference-app-sub002/internal/common/errors"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

func (o *Orchestrator) handleGreeting(ctx context.Context, req Request, state *models.ConversationState) *Response {
	state.UserInfo.Merge(o.extractor.Extract(ctx, req.Message, state.UserInfo))

	if req.UserID != "" {
		exists, agendaID, err := o.store.HasExistingAgenda(ctx, req.UserID)
		if err != nil {
			o.logger.Warn("existing agenda check failed", map[string]interface{}{
				"userId": req.UserID,
				"error":  err.Error(),
			})
		} else if exists {
			state.HasExistingAgenda = true
			state.ExistingAgendaID = agendaID
			state.Phase = models.PhaseCheckingExisting
			return &Response{
				Message: "Welcome back! You already have a saved agenda. Would you like to view it, update it, or start a fresh one?",
			}
		}
	}

	if wantsAgenda(req.Message) && state.UserInfo.IsComplete() {
		state.Phase = models.PhaseResearching
		return o.runResearch(ctx, state)
	}

	state.Phase = models.PhaseCollectingInfo
	return &Response{
		Message: "Hi! I can build you a personalized agenda for the conference. To get started, tell me your name, your company, and your role.",
	}
}

func (o *Orchestrator) handleCheckingExisting(req Request, state *models.ConversationState) *Response {
	msg := strings.ToLower(req.Message)
	switch {
	case strings.Contains(msg, "view") || strings.Contains(msg, "show") || strings.Contains(msg, "see it"):
		state.Phase = models.PhaseComplete
		state.AgendaBuilt = true
		return &Response{
			Message:    "Here's your saved agenda. Let me know if you'd like to adjust anything or export it.",
			NextAction: "show_agenda",
		}
	case strings.Contains(msg, "update") || strings.Contains(msg, "change") || strings.Contains(msg, "edit"):
		state.UserWantsUpdate = true
		state.Phase = models.PhaseCollectingInfo
		return &Response{
			Message: "Happy to update it. Has anything changed since last time? Tell me your current role and what you want to focus on.",
		}
	case strings.Contains(msg, "new") || strings.Contains(msg, "fresh") || strings.Contains(msg, "start over"):
		state.Phase = models.PhaseCollectingInfo
		return &Response{
			Message: "Let's build a fresh one. Tell me your name, your company, and your role.",
		}
	}
	return &Response{
		Message: "Would you like to view your saved agenda, update it, or start a new one?",
	}
}

func (o *Orchestrator) handleCollectingInfo(ctx context.Context, req Request, state *models.ConversationState) *Response {
	state.UserInfo.Merge(o.extractor.Extract(ctx, req.Message, state.UserInfo))

	if state.UserInfo.IsComplete() {
		state.Phase = models.PhaseResearching
		return o.runResearch(ctx, state)
	}

	return &Response{
		Message: fmt.Sprintf("Thanks! I still need %s to personalize your agenda.", missingFields(state.UserInfo)),
	}
}

// runResearch performs the bounded parallel research pass and moves the
// conversation to profile confirmation. Research never fails the turn; a
// fully failed pass just produces a thinner profile to confirm.
func (o *Orchestrator) runResearch(ctx context.Context, state *models.ConversationState) *Response {
	profile := o.researcher.Research(ctx, state.UserInfo)
	state.ResearchProfile = profile
	state.Phase = models.PhaseConfirming

	if profile.Research.FailedQueries > 0 && len(profile.Research.Results) == 0 {
		return &Response{
			Message: fmt.Sprintf("Thanks %s! I couldn't find much online, so help me out: what topics are you most interested in at the conference?",
				firstName(state.UserInfo.Name)),
			Profile: profile,
		}
	}

	return &Response{
		Message: fmt.Sprintf("Here's what I've got: %s, %s at %s, likely interested in %s. Did I get that right?",
			state.UserInfo.Name, state.UserInfo.Title, state.UserInfo.Company,
			interestSummary(profile)),
		Profile: profile,
	}
}

func (o *Orchestrator) handleConfirming(ctx context.Context, req Request, state *models.ConversationState) *Response {
	// Corrections may carry new facts ("actually I'm at Acme now").
	state.UserInfo.Merge(o.extractor.Extract(ctx, req.Message, state.UserInfo))

	// Objections win: "no, that's not right" also contains agreement words.
	switch {
	case isNegative(req.Message):
		state.Phase = models.PhaseCollectingInfo
		return &Response{
			Message: "No problem, let's fix that. What should I correct?",
		}
	case isAffirmative(req.Message):
		state.Phase = models.PhaseBuildingAgenda
		return o.runBuild(ctx, req, state)
	}
	return &Response{
		Message: "Just to confirm: does that profile look right? A quick yes or no works.",
	}
}

// runBuild runs the agenda builder, persists on success, and converts failure
// into a conversational redirect. Repeated failures land in a terminal manual
// fallback instead of looping forever.
func (o *Orchestrator) runBuild(ctx context.Context, req Request, state *models.ConversationState) *Response {
	opts := agenda.BuildOptions{
		IncludeMeals:      o.config.IncludeMeals,
		MaxSessionsPerDay: o.config.MaxSessionsPerDay,
	}

	var result *agenda.BuildResult
	if req.UserID != "" {
		result = o.builder.GenerateSmartAgenda(ctx, req.UserID, opts)
	} else {
		result = o.builder.GenerateGuestAgenda(ctx, agenda.GuestPreferences{
			Interests: state.UserInfo.Interests,
			Profile:   state.ResearchProfile,
		}, opts)
	}

	if !result.Success {
		state.BuildAttempts++
		o.logger.Warn("agenda build failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"attempt":   state.BuildAttempts,
			"error":     apperrors.NewAgendaGenerationFailed(result.Error).Error(),
		})
		if state.BuildAttempts >= o.config.MaxBuildAttempts {
			state.Phase = models.PhaseManualFallback
			return &Response{
				Message: "I'm having trouble putting a schedule together automatically. Our concierge team at the registration desk can build one with you, or browse the full session catalog and favorite what looks good.",
			}
		}
		state.Phase = models.PhaseCollectingInfo
		return &Response{
			Message: "Let's try a different way. What are your top 3 conference goals? That helps me pick the right sessions.",
		}
	}

	o.persistAgenda(ctx, req, state, result.Agenda)

	state.AgendaBuilt = true
	state.Phase = models.PhaseComplete

	msg := fmt.Sprintf("Done! Your personalized agenda covers %d days with %d sessions.",
		len(result.Agenda.Days), totalSessions(result.Agenda))
	if n := len(result.Agenda.Conflicts); n > 0 {
		msg += fmt.Sprintf(" I spotted %d schedule conflicts you may want to resolve.", n)
	}
	msg += " Want to export it or adjust anything?"

	return &Response{
		Message:    msg,
		NextAction: "show_agenda",
		Agenda:     result.Agenda,
	}
}

// persistAgenda saves or versions the agenda. A storage failure is logged and
// the turn still reports success: availability over durability.
func (o *Orchestrator) persistAgenda(ctx context.Context, req Request, state *models.ConversationState, built *models.SmartAgenda) {
	if req.UserID == "" {
		return
	}

	var err error
	if state.UserWantsUpdate && state.HasExistingAgenda {
		_, err = o.store.UpdatePersonalizedAgenda(ctx, req.UserID, built)
	} else {
		_, err = o.store.SavePersonalizedAgenda(ctx, req.UserID, built)
	}
	if err != nil {
		o.logger.Error("agenda persist failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"userId":    req.UserID,
			"error":     err.Error(),
		})
		return
	}

	if o.notifier != nil {
		o.notifier.AgendaSaved(ctx, state.UserInfo, built)
	}
}

func (o *Orchestrator) handleComplete(req Request, state *models.ConversationState) *Response {
	msg := strings.ToLower(req.Message)
	if strings.Contains(msg, "export") || strings.Contains(msg, "email") || strings.Contains(msg, "calendar") {
		return &Response{
			Message:    "I'll get your agenda ready for export.",
			NextAction: "export_agenda",
		}
	}
	if strings.Contains(msg, "conflict") {
		return &Response{
			Message:    "Open your agenda and pick which session to keep for each conflict; I'll drop the other one and re-check the schedule.",
			NextAction: "show_conflicts",
		}
	}
	return &Response{
		Message: "Your agenda is saved. I can export it, adjust sessions, or help resolve schedule conflicts.",
	}
}

func (o *Orchestrator) handleManualFallback(state *models.ConversationState) *Response {
	return &Response{
		Message: "Automatic scheduling is paused for this session. The concierge team at the registration desk can help, or browse the session catalog and favorite sessions directly.",
	}
}

func wantsAgenda(message string) bool {
	msg := strings.ToLower(message)
	for _, cue := range []string{"agenda", "schedule", "plan my", "itinerary"} {
		if strings.Contains(msg, cue) {
			return true
		}
	}
	return false
}

// Cues match whole words: "incorrect" must not read as "correct", nor
// "no, that's not right" as "right".
var (
	affirmativeRe = regexp.MustCompile(`\b(yes|yep|yeah|correct|right|sure|perfect|exactly)\b`)
	negativeRe    = regexp.MustCompile(`\b(no|nope|nah|not|wrong|incorrect)\b`)
)

func isAffirmative(message string) bool {
	msg := strings.ToLower(message)
	if affirmativeRe.MatchString(msg) {
		return true
	}
	for _, cue := range []string{"sounds good", "looks good", "that's me"} {
		if strings.Contains(msg, cue) {
			return true
		}
	}
	return false
}

func isNegative(message string) bool {
	msg := strings.ToLower(message)
	// "actually" signals a correction even without an explicit "no".
	return negativeRe.MatchString(msg) || strings.Contains(msg, "actually")
}

func missingFields(info models.BasicUserInfo) string {
	var missing []string
	if info.Name == "" {
		missing = append(missing, "your name")
	}
	if info.Company == "" {
		missing = append(missing, "your company")
	}
	if info.Title == "" {
		missing = append(missing, "your role")
	}
	switch len(missing) {
	case 0:
		return "nothing else"
	case 1:
		return missing[0]
	default:
		return strings.Join(missing[:len(missing)-1], ", ") + " and " + missing[len(missing)-1]
	}
}

func firstName(name string) string {
	if name == "" {
		return "there"
	}
	parts := strings.Fields(name)
	return parts[0]
}

func interestSummary(profile *models.EnrichedUserProfile) string {
	interests := profile.Inferred.LikelyInterests
	if len(interests) == 0 {
		interests = profile.BasicInfo.Interests
	}
	if len(interests) == 0 {
		return "the general conference tracks"
	}
	if len(interests) > 3 {
		interests = interests[:3]
	}
	return strings.Join(interests, ", ")
}

func totalSessions(a *models.SmartAgenda) int {
	n := 0
	for _, day := range a.Days {
		n += day.Stats.TotalSessions
	}
	return n
}
