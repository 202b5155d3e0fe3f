// internal/schedule/conflicts/resolver.go
package conflicts

import (
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

// Resolution names the item that stays and the item to be removed for one
// pairwise conflict.
type Resolution struct {
	Keep        string `json:"keep"`
	Alternative string `json:"alternative"`
}

// Resolve decides, for each conflict, which side to keep. An explicit choice
// (a set of keep ids supplied by the user) wins; otherwise the user-favorite
// side is kept; when both or neither side is a favorite, Session1 is kept.
//
// Resolution is not transactional across a conflict group: each pair resolves
// independently, so resolving A-B then B-C can keep B by one decision and
// remove it by another. Callers apply the removals and re-run detection until
// a fixed point; conflicts never self-heal.
func Resolve(conflicts []models.Conflict, keepChoices []string) []Resolution {
	keep := make(map[string]bool, len(keepChoices))
	for _, id := range keepChoices {
		keep[id] = true
	}

	resolutions := make([]Resolution, 0, len(conflicts))
	for _, c := range conflicts {
		kept, alt := c.Session1, c.Session2

		switch {
		case keep[c.Session1.ID]:
			// default assignment already keeps session1
		case keep[c.Session2.ID]:
			kept, alt = c.Session2, c.Session1
		case c.Session2.IsFavorite() && !c.Session1.IsFavorite():
			kept, alt = c.Session2, c.Session1
		}

		resolutions = append(resolutions, Resolution{
			Keep:        kept.ID,
			Alternative: alt.ID,
		})
	}
	return resolutions
}

// ApplyResolutions removes each resolution's alternative from the agenda and
// returns how many items were actually removed. Detection must be re-run
// afterwards; the agenda's Conflicts slice is left untouched here.
func ApplyResolutions(agenda *models.SmartAgenda, resolutions []Resolution) int {
	removed := 0
	for _, r := range resolutions {
		if agenda.RemoveItem(r.Alternative) {
			removed++
		}
	}
	return removed
}

// maxFixedPointRounds bounds the detect-resolve-apply loop. Every round either
// removes at least one item or terminates, so the cap is only a guard against
// pathological input.
const maxFixedPointRounds = 10

// ResolveToFixedPoint repeatedly detects, resolves with default policy, and
// applies removals until the agenda has no reportable conflicts. It returns
// the final conflict list (empty on convergence) and the total removals made.
func ResolveToFixedPoint(d *Detector, agenda *models.SmartAgenda) ([]models.Conflict, int) {
	totalRemoved := 0
	for round := 0; round < maxFixedPointRounds; round++ {
		found := d.DetectAgenda(agenda)
		if len(found) == 0 {
			agenda.Conflicts = nil
			return nil, totalRemoved
		}

		removed := ApplyResolutions(agenda, Resolve(found, nil))
		totalRemoved += removed
		if removed == 0 {
			agenda.Conflicts = found
			return found, totalRemoved
		}
	}

	final := d.DetectAgenda(agenda)
	agenda.Conflicts = final
	return final, totalRemoved
}
