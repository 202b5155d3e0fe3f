// internal/schedule/conflicts/detector.go
package conflicts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

// minMediumOverlap is the smallest overlap, in minutes, a favorite vs.
// non-favorite pair must have before it is surfaced as a medium conflict.
const minMediumOverlap = 15

// defaultExemptKeywords mark always-open venues. Items whose title or location
// mentions one can be dropped into at any time, so they never conflict.
var defaultExemptKeywords = []string{"expo floor", "expo hall", "open expo"}

// Detector finds pairwise time overlaps among a day's attendable items.
type Detector struct {
	exemptKeywords []string
	logger         logger.Logger
}

func NewDetector(log logger.Logger) *Detector {
	return &Detector{
		exemptKeywords: defaultExemptKeywords,
		logger: log.With(map[string]interface{}{
			"component": "conflict-detector",
		}),
	}
}

// Detect returns every conflicting pair among items for the given day.
// High-priority conflicts (favorite vs. favorite) come first, then medium
// (favorite vs. non-favorite with more than 15 minutes of overlap). Pairs with
// no favorite involved are never reported; the system only protects
// user-chosen commitments. Input order does not matter and no pair appears
// twice.
func (d *Detector) Detect(items []models.ScheduleItem, day int) []models.Conflict {
	attendable := d.filterAttendable(items)

	var favorites, others []models.ScheduleItem
	for _, item := range attendable {
		if item.IsFavorite() {
			favorites = append(favorites, item)
		} else {
			others = append(others, item)
		}
	}

	var found []models.Conflict

	// Pass 1: favorite vs. favorite.
	for i := 0; i < len(favorites); i++ {
		for j := i + 1; j < len(favorites); j++ {
			if overlap := d.overlapMinutes(favorites[i], favorites[j]); overlap > 0 {
				found = append(found, models.Conflict{
					Session1:    favorites[i],
					Session2:    favorites[j],
					TimeOverlap: formatOverlap(overlap),
					Day:         day,
					Priority:    models.ConflictHigh,
				})
			}
		}
	}

	// Pass 2: favorite vs. non-favorite, only when the collision is long
	// enough to matter.
	for _, fav := range favorites {
		for _, other := range others {
			if overlap := d.overlapMinutes(fav, other); overlap > minMediumOverlap {
				found = append(found, models.Conflict{
					Session1:    fav,
					Session2:    other,
					TimeOverlap: formatOverlap(overlap),
					Day:         day,
					Priority:    models.ConflictMedium,
				})
			}
		}
	}

	sortConflicts(found)

	if len(found) > 0 {
		d.logger.Info("conflicts detected", map[string]interface{}{
			"day":   day,
			"count": len(found),
		})
	}

	return found
}

// DetectAgenda runs Detect over every day of the agenda.
func (d *Detector) DetectAgenda(agenda *models.SmartAgenda) []models.Conflict {
	var all []models.Conflict
	for _, day := range agenda.Days {
		all = append(all, d.Detect(day.Schedule, day.DayNumber)...)
	}
	sortConflicts(all)
	return all
}

// filterAttendable drops breaks, travel, break-like "other" items, and
// anything held at an exempt venue.
func (d *Detector) filterAttendable(items []models.ScheduleItem) []models.ScheduleItem {
	var out []models.ScheduleItem
	for _, item := range items {
		switch item.Type {
		case models.ItemTypeSession, models.ItemTypeMeal:
		case models.ItemTypeOther:
			if isBreakLike(item.Item.Title) {
				continue
			}
		default:
			continue
		}
		if d.isExempt(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (d *Detector) isExempt(item models.ScheduleItem) bool {
	title := strings.ToLower(item.Item.Title)
	location := strings.ToLower(item.Item.Location)
	for _, kw := range d.exemptKeywords {
		if strings.Contains(title, kw) || strings.Contains(location, kw) {
			return true
		}
	}
	return false
}

func isBreakLike(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "break") || strings.Contains(t, "free time")
}

// overlapMinutes returns the length of the strictly positive intersection of
// the two items' time ranges, or 0. Touching endpoints do not overlap.
func (d *Detector) overlapMinutes(a, b models.ScheduleItem) int {
	start1, end1 := d.parseTime(a.Time), d.parseTime(a.EndTime)
	start2, end2 := d.parseTime(b.Time), d.parseTime(b.EndTime)

	if start1 < end2 && end1 > start2 {
		overlapEnd := end1
		if end2 < overlapEnd {
			overlapEnd = end2
		}
		overlapStart := start1
		if start2 > overlapStart {
			overlapStart = start2
		}
		return overlapEnd - overlapStart
	}
	return 0
}

// parseTime converts a 12-hour "h:mm AM/PM" string to minutes since midnight.
// Malformed strings yield 0 so a single bad record cannot break detection for
// the rest of the day.
func (d *Detector) parseTime(s string) int {
	minutes, err := ParseClock(s)
	if err != nil {
		d.logger.Warn("malformed time string", map[string]interface{}{
			"value": s,
			"error": err.Error(),
		})
		return 0
	}
	return minutes
}

// ParseClock parses "h:mm AM/PM" into minutes since midnight. Hour 12 AM maps
// to 0 and 12 PM stays 12.
func ParseClock(s string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, fmt.Errorf("expected \"h:mm AM/PM\", got %q", s)
	}

	clock, meridiem := fields[0], strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, fmt.Errorf("bad meridiem %q", fields[1])
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock %q", clock)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad minute %q", parts[1])
	}

	if meridiem == "AM" {
		if hour == 12 {
			hour = 0
		}
	} else if hour != 12 {
		hour += 12
	}

	return hour*60 + minute, nil
}

func formatOverlap(minutes int) string {
	return fmt.Sprintf("%d min overlap", minutes)
}

// sortConflicts orders high before medium, then day ascending. The sort is
// stable so pair discovery order survives within a bucket.
func sortConflicts(cs []models.Conflict) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Priority != cs[j].Priority {
			return cs[i].Priority == models.ConflictHigh
		}
		return cs[i].Day < cs[j].Day
	})
}
