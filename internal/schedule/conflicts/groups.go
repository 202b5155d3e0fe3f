// internal/schedule/conflicts/groups.go
package conflicts

import (
	"fmt"
	"sort"

	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

// GroupConflicts clusters the pairwise conflicts of one detection run into
// connected components: A-B plus B-C yields one group {A,B,C} even when A and
// C never overlap directly. Groups are keyed per day, items within a group are
// ordered by id, and group IDs are stable across runs over the same input.
func GroupConflicts(conflicts []models.Conflict) []models.ConflictGroup {
	if len(conflicts) == 0 {
		return nil
	}

	parent := make(map[string]string)
	items := make(map[string]models.ScheduleItem)
	day := make(map[string]int)

	var find func(id string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}

	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			// Smaller root wins so component roots are input-order independent.
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	add := func(item models.ScheduleItem, d int) {
		if _, ok := parent[item.ID]; !ok {
			parent[item.ID] = item.ID
			items[item.ID] = item
			day[item.ID] = d
		}
	}

	for _, c := range conflicts {
		add(c.Session1, c.Day)
		add(c.Session2, c.Day)
		union(c.Session1.ID, c.Session2.ID)
	}

	members := make(map[string][]models.ScheduleItem)
	for id := range parent {
		root := find(id)
		members[root] = append(members[root], items[id])
	}

	groups := make([]models.ConflictGroup, 0, len(members))
	for root, list := range members {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		groups = append(groups, models.ConflictGroup{
			ID:    fmt.Sprintf("conflict-group-%s", root),
			Day:   day[root],
			Items: list,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Day != groups[j].Day {
			return groups[i].Day < groups[j].Day
		}
		return groups[i].ID < groups[j].ID
	})

	return groups
}
