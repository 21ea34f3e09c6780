package gcd

import (
	"sort"
	"time"
)

// ResolveCalibrations picks, for each DOM present in cals, the single
// calibration in effect at runStart.
//
// Per DOM the rule is "latest at or before runStart, else oldest": the group
// is ordered by timestamp descending and the first record whose timestamp is
// <= runStart wins. If every record postdates the run start the oldest record
// is used instead — a DOM calibrated only after the run began still needs a
// baseline in the snapshot rather than none.
//
// Records with equal timestamps keep their original retrieval order (the sort
// is stable), so the earlier-retrieved record wins the tie. The run's end
// time plays no part: calibrations are not re-resolved mid-run.
//
// Pure function; never fails on well-formed input. Empty input yields an
// empty result.
func ResolveCalibrations(cals []Calibration, runStart time.Time) []Calibration {
	groups := make(map[uint32][]Calibration)
	order := make([]uint32, 0)
	for _, c := range cals {
		if _, seen := groups[c.DOMID]; !seen {
			order = append(order, c.DOMID)
		}
		groups[c.DOMID] = append(groups[c.DOMID], c)
	}

	resolved := make([]Calibration, 0, len(order))
	for _, domID := range order {
		group := groups[domID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.After(group[j].Timestamp)
		})

		selected := group[len(group)-1] // fallback: oldest
		for _, c := range group {
			if !c.Timestamp.After(runStart) {
				selected = c
				break
			}
		}
		resolved = append(resolved, selected)
	}
	return resolved
}
