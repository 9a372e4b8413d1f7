package jobs

import (
	"github.com/openorbit/gs-tracker/internal/types"
)

// Overlaps reports whether two pass windows intersect. Touching
// boundaries count as an overlap: the antenna needs the full window,
// including repositioning at its edges.
func Overlaps(a, b *types.Job) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// FindConflict scans the live jobs for one holding the station during
// the candidate's window. Only jobs in the Scheduled or Started state
// reserve hardware time; everything else is ignored. Returns the id of
// the first conflicting job found.
func FindConflict(candidate *types.Job, live []*types.Job, status func(uint64) (types.JobStatus, bool)) (uint64, bool) {
	for _, other := range live {
		if other.ID == candidate.ID {
			continue
		}
		st, ok := status(other.ID)
		if !ok || (st != types.StatusScheduled && st != types.StatusStarted) {
			continue
		}
		if Overlaps(candidate, other) {
			return other.ID, true
		}
	}
	return 0, false
}
