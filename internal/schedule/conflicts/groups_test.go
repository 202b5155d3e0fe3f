// internal/schedule/conflicts/groups_test.go
package conflicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

func TestGroupConflicts_TransitiveClosure(t *testing.T) {
	detector := NewDetector(logger.NewTestLogger(t))

	// A overlaps B, B overlaps C, A does not overlap C.
	a := favorite("a", "A", "9:00 AM", "10:00 AM")
	b := favorite("b", "B", "9:30 AM", "10:30 AM")
	c := favorite("c", "C", "10:15 AM", "11:00 AM")

	found := detector.Detect([]models.ScheduleItem{a, b, c}, 1)
	require.Len(t, found, 2, "A-B and B-C, never A-C")

	groups := GroupConflicts(found)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Day)
	require.Len(t, groups[0].Items, 3)
	assert.Equal(t, "a", groups[0].Items[0].ID)
	assert.Equal(t, "b", groups[0].Items[1].ID)
	assert.Equal(t, "c", groups[0].Items[2].ID)
}

func TestGroupConflicts_SeparateComponents(t *testing.T) {
	morning := models.Conflict{
		Session1: favorite("a", "A", "9:00 AM", "10:00 AM"),
		Session2: favorite("b", "B", "9:30 AM", "10:30 AM"),
		Day:      1,
		Priority: models.ConflictHigh,
	}
	afternoon := models.Conflict{
		Session1: favorite("x", "X", "2:00 PM", "3:00 PM"),
		Session2: favorite("y", "Y", "2:30 PM", "3:30 PM"),
		Day:      2,
		Priority: models.ConflictHigh,
	}

	groups := GroupConflicts([]models.Conflict{afternoon, morning})
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Day)
	assert.Equal(t, 2, groups[1].Day)
}

func TestGroupConflicts_StableIDsAcrossInputOrder(t *testing.T) {
	ab := models.Conflict{
		Session1: favorite("a", "A", "9:00 AM", "10:00 AM"),
		Session2: favorite("b", "B", "9:30 AM", "10:30 AM"),
		Day:      1,
	}
	bc := models.Conflict{
		Session1: favorite("b", "B", "9:30 AM", "10:30 AM"),
		Session2: favorite("c", "C", "10:15 AM", "11:00 AM"),
		Day:      1,
	}

	forward := GroupConflicts([]models.Conflict{ab, bc})
	reversed := GroupConflicts([]models.Conflict{bc, ab})

	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)
	assert.Equal(t, forward[0].ID, reversed[0].ID)
	assert.Equal(t, "conflict-group-a", forward[0].ID)
}

func TestGroupConflicts_Empty(t *testing.T) {
	assert.Nil(t, GroupConflicts(nil))
}
