// internal/schedule/conflicts/detector_test.go
package conflicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

func item(id, title, start, end string, source models.ItemSource) models.ScheduleItem {
	return models.ScheduleItem{
		ID:      id,
		Type:    models.ItemTypeSession,
		Time:    start,
		EndTime: end,
		Source:  source,
		Item: models.SessionInfo{
			ID:    id,
			Title: title,
		},
	}
}

func favorite(id, title, start, end string) models.ScheduleItem {
	return item(id, title, start, end, models.SourceUserFavorite)
}

func suggested(id, title, start, end string) models.ScheduleItem {
	return item(id, title, start, end, models.SourceAISuggested)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "morning", input: "9:00 AM", want: 540},
		{name: "afternoon", input: "2:30 PM", want: 870},
		{name: "midnight", input: "12:00 AM", want: 0},
		{name: "noon", input: "12:00 PM", want: 720},
		{name: "just before midnight", input: "11:59 PM", want: 1439},
		{name: "lowercase meridiem", input: "10:15 am", want: 615},
		{name: "missing meridiem", input: "10:15", wantErr: true},
		{name: "bad hour", input: "13:00 PM", wantErr: true},
		{name: "bad minute", input: "9:75 AM", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soonish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_TwoOverlappingFavorites(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	items := []models.ScheduleItem{
		favorite("s1", "AI Keynote", "10:00 AM", "11:00 AM"),
		favorite("s2", "Claims Panel", "10:30 AM", "11:30 AM"),
	}

	found := detector.Detect(items, 1)

	require.Len(t, found, 1)
	assert.Equal(t, models.ConflictHigh, found[0].Priority)
	assert.Equal(t, "30 min overlap", found[0].TimeOverlap)
	assert.Equal(t, 1, found[0].Day)
}

func TestDetect_NonFavoritesNeverReported(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	items := []models.ScheduleItem{
		suggested("s1", "Session A", "10:00 AM", "11:00 AM"),
		suggested("s2", "Session B", "10:00 AM", "11:00 AM"),
	}

	assert.Empty(t, detector.Detect(items, 1))
}

func TestDetect_MediumRequiresMoreThan15Minutes(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	t.Run("exactly 15 minutes is not reported", func(t *testing.T) {
		items := []models.ScheduleItem{
			favorite("s1", "Favorite", "10:00 AM", "11:00 AM"),
			suggested("s2", "Other", "10:45 AM", "11:45 AM"),
		}
		assert.Empty(t, detector.Detect(items, 1))
	})

	t.Run("16 minutes is medium", func(t *testing.T) {
		items := []models.ScheduleItem{
			favorite("s1", "Favorite", "10:00 AM", "11:00 AM"),
			suggested("s2", "Other", "10:44 AM", "11:45 AM"),
		}
		found := detector.Detect(items, 1)
		require.Len(t, found, 1)
		assert.Equal(t, models.ConflictMedium, found[0].Priority)
		assert.Equal(t, "16 min overlap", found[0].TimeOverlap)
	})
}

func TestDetect_TouchingEndpointsDoNotConflict(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	items := []models.ScheduleItem{
		favorite("s1", "Morning", "9:00 AM", "10:00 AM"),
		favorite("s2", "Next", "10:00 AM", "11:00 AM"),
	}

	assert.Empty(t, detector.Detect(items, 1))
}

func TestDetect_OrderIndependentAndNoDuplicates(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	a := favorite("a", "A", "10:00 AM", "11:00 AM")
	b := favorite("b", "B", "10:30 AM", "11:30 AM")

	forward := detector.Detect([]models.ScheduleItem{a, b}, 1)
	reversed := detector.Detect([]models.ScheduleItem{b, a}, 1)

	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)
	assert.Equal(t, forward[0].TimeOverlap, reversed[0].TimeOverlap)
	assert.Equal(t, forward[0].Priority, reversed[0].Priority)
}

func TestDetect_ExemptVenuesNeverConflict(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	expo := favorite("s1", "Open Expo Floor", "9:00 AM", "5:00 PM")
	keynote := favorite("s2", "Keynote", "10:00 AM", "11:00 AM")

	assert.Empty(t, detector.Detect([]models.ScheduleItem{expo, keynote}, 1))

	t.Run("exempt by location", func(t *testing.T) {
		booth := favorite("s3", "Vendor Demos", "9:00 AM", "5:00 PM")
		booth.Item.Location = "Expo Hall B"
		assert.Empty(t, detector.Detect([]models.ScheduleItem{booth, keynote}, 1))
	})
}

func TestDetect_FiltersBreaksAndTravel(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	breakItem := favorite("s1", "Coffee Break", "10:00 AM", "11:00 AM")
	breakItem.Type = models.ItemTypeOther
	travel := favorite("s2", "Shuttle", "10:00 AM", "11:00 AM")
	travel.Type = models.ItemTypeTravel
	keynote := favorite("s3", "Keynote", "10:00 AM", "11:00 AM")

	assert.Empty(t, detector.Detect([]models.ScheduleItem{breakItem, travel, keynote}, 1))
}

func TestDetect_MealsAreAttendable(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	lunch := favorite("m1", "Lunch", "12:00 PM", "1:00 PM")
	lunch.Type = models.ItemTypeMeal
	panel := favorite("s1", "Panel", "12:30 PM", "1:30 PM")

	found := detector.Detect([]models.ScheduleItem{lunch, panel}, 2)
	require.Len(t, found, 1)
	assert.Equal(t, models.ConflictHigh, found[0].Priority)
}

func TestDetect_MalformedTimeDoesNotAbortDay(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	bad := favorite("s1", "Bad Times", "whenever", "later")
	good1 := favorite("s2", "A", "10:00 AM", "11:00 AM")
	good2 := favorite("s3", "B", "10:30 AM", "11:30 AM")

	// The malformed item collapses to 0..0 and cannot overlap anything, but the
	// remaining pair is still detected.
	found := detector.Detect([]models.ScheduleItem{bad, good1, good2}, 1)
	require.Len(t, found, 1)
	assert.Equal(t, "s2", found[0].Session1.ID)
	assert.Equal(t, "s3", found[0].Session2.ID)
}

func TestDetect_SortsHighBeforeMedium(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	items := []models.ScheduleItem{
		favorite("f1", "Fav 1", "9:00 AM", "10:00 AM"),
		suggested("o1", "Other", "9:00 AM", "10:00 AM"),
		favorite("f2", "Fav 2", "9:30 AM", "10:30 AM"),
	}

	found := detector.Detect(items, 1)
	require.Len(t, found, 3)
	assert.Equal(t, models.ConflictHigh, found[0].Priority)
	assert.Equal(t, models.ConflictMedium, found[1].Priority)
	assert.Equal(t, models.ConflictMedium, found[2].Priority)
}

func TestDetectAgenda_SpansDays(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	agenda := &models.SmartAgenda{
		Days: []models.DaySchedule{
			{DayNumber: 1, Schedule: []models.ScheduleItem{
				favorite("d1a", "A", "10:00 AM", "11:00 AM"),
				favorite("d1b", "B", "10:30 AM", "11:30 AM"),
			}},
			{DayNumber: 2, Schedule: []models.ScheduleItem{
				favorite("d2a", "C", "2:00 PM", "3:00 PM"),
				favorite("d2b", "D", "2:30 PM", "3:30 PM"),
			}},
		},
	}

	found := detector.DetectAgenda(agenda)
	require.Len(t, found, 2)
	assert.Equal(t, 1, found[0].Day)
	assert.Equal(t, 2, found[1].Day)
}
