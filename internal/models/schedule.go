// internal/models/schedule.go
package models

import "time"

// ItemType classifies a schedule entry.
type ItemType string

const (
	ItemTypeSession ItemType = "session"
	ItemTypeMeal    ItemType = "meal"
	ItemTypeBreak   ItemType = "break"
	ItemTypeTravel  ItemType = "travel"
	ItemTypeOther   ItemType = "other"
)

// ItemSource records how an item got onto the agenda.
type ItemSource string

const (
	SourceUserFavorite  ItemSource = "user-favorite"
	SourceAISuggested   ItemSource = "ai-suggested"
	SourceParallelTrack ItemSource = "parallel-track"
	SourceGenerated     ItemSource = "generated"
)

// ItemPriority ranks how firmly an item should be kept on the schedule.
type ItemPriority string

const (
	PriorityRequired    ItemPriority = "required"
	PriorityRecommended ItemPriority = "recommended"
	PriorityOptional    ItemPriority = "optional"
)

// SessionInfo is the displayable payload of a schedule item.
type SessionInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Track       string   `json:"track,omitempty"`
	Speakers    []string `json:"speakers,omitempty"`
}

// AIMetadata carries the ranking model's output for an AI-suggested item.
type AIMetadata struct {
	Confidence int    `json:"confidence"` // 0..100
	Reasoning  string `json:"reasoning,omitempty"`
}

// AlternativeItem is a swap candidate for a schedule item.
type AlternativeItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty"`
}

// ScheduleItem is one time-boxed agenda entry. Time and EndTime are wall-clock
// "h:mm AM/PM" strings in the conference display timezone, localized upstream.
// Invariant: Time < EndTime within the same day.
type ScheduleItem struct {
	ID           string            `json:"id"`
	Type         ItemType          `json:"type"`
	Time         string            `json:"time"`
	EndTime      string            `json:"endTime"`
	Source       ItemSource        `json:"source"`
	Priority     ItemPriority      `json:"priority"`
	Item         SessionInfo       `json:"item"`
	Alternatives []AlternativeItem `json:"alternatives,omitempty"`
	AIMetadata   *AIMetadata       `json:"aiMetadata,omitempty"`
}

// IsFavorite reports whether the item is a user-chosen commitment.
func (s *ScheduleItem) IsFavorite() bool {
	return s.Source == SourceUserFavorite
}

// DayStats summarizes one conference day.
type DayStats struct {
	TotalSessions      int `json:"totalSessions"`
	FavoritesCount     int `json:"favoritesCount"`
	AISuggestionsCount int `json:"aiSuggestionsCount"`
}

// DaySchedule holds one day of the agenda. Schedule order is display order, not
// time order; consumers must not assume sortedness.
type DaySchedule struct {
	DayNumber int            `json:"dayNumber"`
	Date      string         `json:"date"`
	Schedule  []ScheduleItem `json:"schedule"`
	Stats     DayStats       `json:"stats"`
}

// ConflictPriority scores how urgent a conflict is to resolve.
type ConflictPriority string

const (
	ConflictHigh   ConflictPriority = "high"
	ConflictMedium ConflictPriority = "medium"
)

// Conflict is a pair of attendable items whose time ranges overlap. It exists
// only for pairs with a strictly positive intersection involving at least one
// favorite.
type Conflict struct {
	Session1    ScheduleItem     `json:"session1"`
	Session2    ScheduleItem     `json:"session2"`
	TimeOverlap string           `json:"timeOverlap"`
	Day         int              `json:"day"`
	Priority    ConflictPriority `json:"priority"`
}

// ConflictGroup is the connected component of items reachable through chained
// pairwise conflicts. Derived, never persisted.
type ConflictGroup struct {
	ID    string         `json:"id"`
	Day   int            `json:"day"`
	Items []ScheduleItem `json:"items"`
}

// AgendaMetrics summarizes how well the agenda covers the user's preferences.
type AgendaMetrics struct {
	FavoritesIncluded   int `json:"favoritesIncluded"`
	TotalFavorites      int `json:"totalFavorites"`
	AISuggestionsAdded  int `json:"aiSuggestionsAdded"`
	OverallConfidence   int `json:"overallConfidence"`
	ProfileCompleteness int `json:"profileCompleteness"`
}

// SmartAgenda is the personalized multi-day schedule owned by one user. It is
// created by the agenda builder, mutated by item remove/replace, and superseded
// (versioned) on regeneration.
type SmartAgenda struct {
	ID              string        `json:"id"`
	Days            []DaySchedule `json:"days"`
	Conflicts       []Conflict    `json:"conflicts"`
	Metrics         AgendaMetrics `json:"metrics"`
	UsingAI         bool          `json:"usingAI"`
	AIReasoning     string        `json:"aiReasoning,omitempty"`
	ProfileCoaching string        `json:"profileCoaching,omitempty"`
	Suggestions     []string      `json:"suggestions"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

// RemoveItem deletes the item with the given id from whichever day holds it and
// returns true if something was removed. Conflicts are not patched; callers
// must re-run detection afterwards. Stats count sessions only, so removing a
// meal or break leaves them untouched.
func (a *SmartAgenda) RemoveItem(itemID string) bool {
	for d := range a.Days {
		day := &a.Days[d]
		for i := range day.Schedule {
			if day.Schedule[i].ID == itemID {
				removed := day.Schedule[i]
				day.Schedule = append(day.Schedule[:i], day.Schedule[i+1:]...)
				if removed.Type == ItemTypeSession {
					day.Stats.TotalSessions--
				}
				if removed.IsFavorite() {
					day.Stats.FavoritesCount--
				}
				if removed.Source == SourceAISuggested {
					day.Stats.AISuggestionsCount--
				}
				return true
			}
		}
	}
	return false
}

// ConferenceSession is a catalog entry as indexed from the conference export.
type ConferenceSession struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Day         int      `json:"day"`
	Location    string   `json:"location,omitempty"`
	Track       string   `json:"track,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Speakers    []string `json:"speakers,omitempty"`
}
