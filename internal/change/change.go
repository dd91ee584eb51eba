// Package change computes how a follower count moved relative to the
// history sample nearest to one comparison window ago.
package change

import (
	"time"

	"github.com/FranksOps/followtrack/internal/storage"
)

// Window is how far back the baseline sample is sought.
const Window = 24 * time.Hour

// Change describes the movement since the baseline sample.
type Change struct {
	Delta        int64          `json:"delta"`
	ElapsedHours float64        `json:"elapsed_hours"`
	Previous     int64          `json:"previous"`
	Baseline     storage.Sample `json:"baseline"`
}

// Compute picks the sample whose timestamp is closest to now-Window and
// reports the change from it. Ties go to the earlier sample, and among equal
// timestamps to the first in series order. It reports false for an empty series.
func Compute(current int64, series storage.Series, now time.Time) (Change, bool) {
	if len(series) == 0 {
		return Change{}, false
	}

	target := now.Add(-Window)
	best := series[0]
	bestDist := distance(best.Timestamp, target)
	for _, s := range series[1:] {
		d := distance(s.Timestamp, target)
		if d < bestDist || (d == bestDist && s.Timestamp.Before(best.Timestamp)) {
			best, bestDist = s, d
		}
	}

	return Change{
		Delta:        current - best.FollowersCount,
		ElapsedHours: now.Sub(best.Timestamp).Hours(),
		Previous:     best.FollowersCount,
		Baseline:     best,
	}, true
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
