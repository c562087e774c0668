package domain

import "math"

// Aggregate math for the profile stats reconciler. All mutation paths go
// through these functions so the delta logic exists in exactly one place.
//
// Creates are applied incrementally: every term of the aggregate is
// monotone under insertion, so the update is exact. Edits and deletes use
// ComputeAggregate over the surviving rows instead: a shrunk longest run
// and the mean speed cannot be corrected from deltas alone without
// tracking the removed term, so the reconciler trades a scan for
// guaranteed correctness there.

// ApplyCreate folds a single new activity into the current stats.
func ApplyCreate(stats ProfileStats, a Activity) ProfileStats {
	oldCount := stats.TotalActivities

	stats.TotalActivities = oldCount + 1
	stats.TotalTimeMin += float64(a.DurationMin)
	stats.TotalDistanceKm += a.DistanceKm
	if a.DistanceKm > stats.LongestRunKm {
		stats.LongestRunKm = a.DistanceKm
	}
	stats.AvgSpeedKmh = (stats.AvgSpeedKmh*float64(oldCount) + a.SpeedKmh()) / float64(oldCount+1)

	return roundStats(stats)
}

// ComputeAggregate derives the full aggregate from the given activities.
// Deleted rows are skipped, so callers may pass raw scans. The result for
// an empty set is the zero aggregate.
func ComputeAggregate(activities []Activity) ProfileStats {
	var stats ProfileStats
	var speedSum float64
	var speedCount int

	for _, a := range activities {
		if a.Deleted {
			continue
		}
		stats.TotalActivities++
		stats.TotalDistanceKm += a.DistanceKm
		stats.TotalTimeMin += float64(a.DurationMin)
		if a.DistanceKm > stats.LongestRunKm {
			stats.LongestRunKm = a.DistanceKm
		}
		if a.DurationMin > 0 {
			speedSum += a.SpeedKmh()
			speedCount++
		}
	}

	if speedCount > 0 {
		stats.AvgSpeedKmh = speedSum / float64(speedCount)
	}
	return roundStats(stats)
}

// roundStats applies the persistence precision policy: two decimal places
// for distances and speeds, one for accumulated time. Rounding at every
// write bounds float drift across long chains of incremental updates.
func roundStats(stats ProfileStats) ProfileStats {
	stats.TotalDistanceKm = round2(stats.TotalDistanceKm)
	stats.TotalTimeMin = round1(stats.TotalTimeMin)
	stats.AvgSpeedKmh = round2(stats.AvgSpeedKmh)
	stats.LongestRunKm = round2(stats.LongestRunKm)
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
