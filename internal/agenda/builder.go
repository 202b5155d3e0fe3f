// internal/agenda/builder.go
package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adb1146/itc-conference-app-sub002/internal/catalog"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/metrics"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
	"github.com/adb1146/itc-conference-app-sub002/internal/schedule/conflicts"
)

var ErrNoFavorites = errors.New("AGENDA_NO_INPUT")

// BuildOptions tune one build run.
type BuildOptions struct {
	IncludeMeals      bool
	MaxSessionsPerDay int
	PreferredTracks   []string
}

// GuestPreferences drive a build for a visitor without a stored account.
type GuestPreferences struct {
	Interests []string
	Profile   *models.EnrichedUserProfile
}

// BuildResult reports a build outcome. Failure is data, not a panic: the
// orchestrator turns Success=false into a conversational redirect.
type BuildResult struct {
	Success bool
	Agenda  *models.SmartAgenda
	Error   string
}

// Builder is the agenda generation contract consumed by the orchestrator.
type Builder interface {
	GenerateSmartAgenda(ctx context.Context, userID string, opts BuildOptions) *BuildResult
	GenerateGuestAgenda(ctx context.Context, prefs GuestPreferences, opts BuildOptions) *BuildResult
}

// FavoritesProvider lists the sessions a user has explicitly marked.
type FavoritesProvider interface {
	ListFavorites(ctx context.Context, userID string) ([]models.ConferenceSession, error)
}

type Config struct {
	ConferenceDays    int
	ConferenceStart   string // "2006-01-02"
	MaxSessionsPerDay int
}

// SmartBuilder assembles a conflict-annotated multi-day agenda from favorites
// plus catalog matches for the attendee's interests.
type SmartBuilder struct {
	config    *Config
	favorites FavoritesProvider
	catalog   catalog.Searcher
	detector  *conflicts.Detector
	logger    logger.Logger
}

func NewSmartBuilder(config *Config, favorites FavoritesProvider, cat catalog.Searcher, detector *conflicts.Detector, log logger.Logger) *SmartBuilder {
	return &SmartBuilder{
		config:    config,
		favorites: favorites,
		catalog:   cat,
		detector:  detector,
		logger: log.With(map[string]interface{}{
			"component": "agenda-builder",
		}),
	}
}

// GenerateSmartAgenda builds for an authenticated user: their favorites are
// the backbone, interest matches fill the gaps.
func (b *SmartBuilder) GenerateSmartAgenda(ctx context.Context, userID string, opts BuildOptions) *BuildResult {
	favorites, err := b.favorites.ListFavorites(ctx, userID)
	if err != nil {
		metrics.AgendaBuilds.WithLabelValues("failure").Inc()
		b.logger.Error("favorites lookup failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return &BuildResult{Success: false, Error: fmt.Sprintf("favorites lookup failed: %v", err)}
	}

	return b.build(ctx, favorites, nil, nil, opts)
}

// GenerateGuestAgenda builds without an account; everything comes from the
// stated interests and the research profile.
func (b *SmartBuilder) GenerateGuestAgenda(ctx context.Context, prefs GuestPreferences, opts BuildOptions) *BuildResult {
	interests := prefs.Interests
	if prefs.Profile != nil {
		interests = append(interests, prefs.Profile.Inferred.LikelyInterests...)
	}
	return b.build(ctx, nil, interests, prefs.Profile, opts)
}

func (b *SmartBuilder) build(ctx context.Context, favorites []models.ConferenceSession, interests []string, profile *models.EnrichedUserProfile, opts BuildOptions) *BuildResult {
	maxPerDay := opts.MaxSessionsPerDay
	if maxPerDay <= 0 {
		maxPerDay = b.config.MaxSessionsPerDay
	}

	if interests == nil && profile == nil {
		// Authenticated path: interests ride along on the favorites' tags.
		for _, fav := range favorites {
			interests = append(interests, fav.Tags...)
		}
	}

	suggestions, err := b.catalog.Search(ctx, interests, opts.PreferredTracks, maxPerDay*b.config.ConferenceDays)
	if err != nil {
		// Catalog outage degrades to a favorites-only agenda.
		b.logger.Warn("catalog search failed, building from favorites only", map[string]interface{}{
			"error": err.Error(),
		})
		suggestions = nil
	}

	if len(favorites) == 0 && len(suggestions) == 0 {
		metrics.AgendaBuilds.WithLabelValues("failure").Inc()
		return &BuildResult{Success: false, Error: ErrNoFavorites.Error()}
	}

	agenda := b.assemble(favorites, suggestions, profile, opts, maxPerDay)
	agenda.Conflicts = b.detector.DetectAgenda(agenda)
	for _, c := range agenda.Conflicts {
		metrics.ConflictsDetected.WithLabelValues(string(c.Priority)).Inc()
	}

	metrics.AgendaBuilds.WithLabelValues("success").Inc()
	b.logger.Info("agenda built", map[string]interface{}{
		"days":      len(agenda.Days),
		"favorites": agenda.Metrics.FavoritesIncluded,
		"suggested": agenda.Metrics.AISuggestionsAdded,
		"conflicts": len(agenda.Conflicts),
	})

	return &BuildResult{Success: true, Agenda: agenda}
}

func (b *SmartBuilder) assemble(favorites, suggestions []models.ConferenceSession, profile *models.EnrichedUserProfile, opts BuildOptions, maxPerDay int) *models.SmartAgenda {
	days := make([]models.DaySchedule, b.config.ConferenceDays)
	for i := range days {
		days[i] = models.DaySchedule{
			DayNumber: i + 1,
			Date:      b.dateOf(i + 1),
			Schedule:  []models.ScheduleItem{},
		}
	}

	taken := map[string]bool{}
	dayOf := func(session models.ConferenceSession) int {
		if session.Day >= 1 && session.Day <= len(days) {
			return session.Day
		}
		return 1
	}

	for _, fav := range favorites {
		d := dayOf(fav)
		day := &days[d-1]
		day.Schedule = append(day.Schedule, sessionToItem(fav, models.SourceUserFavorite, models.PriorityRequired, nil))
		day.Stats.TotalSessions++
		day.Stats.FavoritesCount++
		taken[fav.ID] = true
	}

	completeness := 0
	if profile != nil {
		completeness = profile.Metadata.DataCompleteness
	}

	added := 0
	for _, s := range suggestions {
		if taken[s.ID] {
			continue
		}
		d := dayOf(s)
		day := &days[d-1]
		if day.Stats.TotalSessions >= maxPerDay {
			continue
		}
		meta := &models.AIMetadata{
			Confidence: suggestionConfidence(completeness),
			Reasoning:  "matches your stated interests",
		}
		day.Schedule = append(day.Schedule, sessionToItem(s, models.SourceAISuggested, models.PriorityRecommended, meta))
		day.Stats.TotalSessions++
		day.Stats.AISuggestionsCount++
		taken[s.ID] = true
		added++
	}

	if opts.IncludeMeals {
		for i := range days {
			days[i].Schedule = append(days[i].Schedule, mealItem(i+1, "Lunch", "12:00 PM", "1:00 PM"))
		}
	}

	agenda := &models.SmartAgenda{
		ID:   uuid.NewString(),
		Days: days,
		Metrics: models.AgendaMetrics{
			FavoritesIncluded:   len(favorites),
			TotalFavorites:      len(favorites),
			AISuggestionsAdded:  added,
			OverallConfidence:   suggestionConfidence(completeness),
			ProfileCompleteness: completeness,
		},
		UsingAI:     profile != nil || added > 0,
		Suggestions: buildSuggestions(len(favorites), added),
		GeneratedAt: time.Now().UTC(),
	}

	if profile != nil {
		agenda.AIReasoning = fmt.Sprintf("Schedule weighted toward %s based on your profile research.",
			firstOr(profile.Inferred.LikelyInterests, "the sessions you favorited"))
		if completeness < 50 {
			agenda.ProfileCoaching = "Tell me more about your focus areas and I can sharpen these picks."
		}
	}

	return agenda
}

func (b *SmartBuilder) dateOf(dayNumber int) string {
	start, err := time.Parse("2006-01-02", b.config.ConferenceStart)
	if err != nil {
		return ""
	}
	return start.AddDate(0, 0, dayNumber-1).Format("2006-01-02")
}

func sessionToItem(s models.ConferenceSession, source models.ItemSource, priority models.ItemPriority, meta *models.AIMetadata) models.ScheduleItem {
	return models.ScheduleItem{
		ID:       s.ID,
		Type:     models.ItemTypeSession,
		Time:     s.StartTime,
		EndTime:  s.EndTime,
		Source:   source,
		Priority: priority,
		Item: models.SessionInfo{
			ID:          s.ID,
			Title:       s.Title,
			Location:    s.Location,
			Description: s.Description,
			Track:       s.Track,
			Speakers:    s.Speakers,
		},
		AIMetadata: meta,
	}
}

func mealItem(day int, title, start, end string) models.ScheduleItem {
	return models.ScheduleItem{
		ID:       fmt.Sprintf("meal-%d-%s", day, title),
		Type:     models.ItemTypeMeal,
		Time:     start,
		EndTime:  end,
		Source:   models.SourceGenerated,
		Priority: models.PriorityOptional,
		Item: models.SessionInfo{
			ID:    fmt.Sprintf("meal-%d-%s", day, title),
			Title: title,
		},
	}
}

func suggestionConfidence(completeness int) int {
	// Thin profiles get conservative confidence.
	base := 50 + completeness/2
	if base > 95 {
		base = 95
	}
	return base
}

func buildSuggestions(favorites, added int) []string {
	var out []string
	if favorites == 0 {
		out = append(out, "Favorite a few sessions and I can anchor your schedule around them")
	}
	if added > 0 {
		out = append(out, "Review the AI-suggested sessions and remove any that don't fit")
	}
	out = append(out, "Ask me to resolve any schedule conflicts")
	return out
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
