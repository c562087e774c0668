package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(distanceKm float64, durationMin int) Activity {
	return Activity{Type: ActivityRun, DistanceKm: distanceKm, DurationMin: durationMin}
}

func TestApplyCreateFromEmpty(t *testing.T) {
	stats := ApplyCreate(ProfileStats{}, run(10, 60))

	assert.Equal(t, 1, stats.TotalActivities)
	assert.Equal(t, 10.0, stats.TotalDistanceKm)
	assert.Equal(t, 60.0, stats.TotalTimeMin)
	assert.Equal(t, 10.0, stats.AvgSpeedKmh)
	assert.Equal(t, 10.0, stats.LongestRunKm)
}

func TestApplyCreateAveragesOverActivityCount(t *testing.T) {
	stats := ApplyCreate(ProfileStats{}, run(10, 60))
	stats = ApplyCreate(stats, run(20, 60))

	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 30.0, stats.TotalDistanceKm)
	assert.Equal(t, 120.0, stats.TotalTimeMin)
	// avg of per-activity speeds, 10 and 20 km/h
	assert.Equal(t, 15.0, stats.AvgSpeedKmh)
	assert.Equal(t, 20.0, stats.LongestRunKm)
}

func TestApplyCreateKeepsLongerPreviousBest(t *testing.T) {
	stats := ApplyCreate(ProfileStats{}, run(21.1, 110))
	stats = ApplyCreate(stats, run(5, 25))

	assert.Equal(t, 21.1, stats.LongestRunKm)
}

func TestComputeAggregateSkipsDeletedRows(t *testing.T) {
	deleted := run(50, 120)
	deleted.Deleted = true

	stats := ComputeAggregate([]Activity{run(10, 60), deleted, run(20, 60)})

	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 30.0, stats.TotalDistanceKm)
	assert.Equal(t, 120.0, stats.TotalTimeMin)
	assert.Equal(t, 15.0, stats.AvgSpeedKmh)
	assert.Equal(t, 20.0, stats.LongestRunKm)
}

func TestComputeAggregateEmptySetIsZero(t *testing.T) {
	stats := ComputeAggregate(nil)
	assert.Equal(t, ProfileStats{}, stats)
}

// Shrinking the sole activity's distance through an edit must drop both
// the longest run and the average speed, which only a full recompute can do.
func TestComputeAggregateLongestAfterShrinkingEdit(t *testing.T) {
	stats := ApplyCreate(ProfileStats{}, run(5, 30))
	assert.Equal(t, 5.0, stats.LongestRunKm)
	assert.Equal(t, 10.0, stats.AvgSpeedKmh)

	stats = ComputeAggregate([]Activity{run(3, 30)})

	assert.Equal(t, 1, stats.TotalActivities)
	assert.Equal(t, 3.0, stats.TotalDistanceKm)
	assert.Equal(t, 3.0, stats.LongestRunKm)
	assert.Equal(t, 6.0, stats.AvgSpeedKmh)
}

// Deleting the longest activity surfaces the next-longest surviving one.
func TestComputeAggregateLongestAfterDelete(t *testing.T) {
	longest := run(42.2, 240)
	longest.Deleted = true

	stats := ComputeAggregate([]Activity{run(10, 60), longest, run(15, 90)})

	assert.Equal(t, 15.0, stats.LongestRunKm)
}

// Create followed by full recompute over the same rows must agree with the
// incremental path within rounding tolerance.
func TestIncrementalMatchesFullRecompute(t *testing.T) {
	activities := []Activity{
		run(5.3, 31),
		run(12.8, 66),
		{Type: ActivityRide, DistanceKm: 40.5, DurationMin: 95},
		run(21.1, 112),
		{Type: ActivityRide, DistanceKm: 18.2, DurationMin: 47},
	}

	var incremental ProfileStats
	for _, a := range activities {
		incremental = ApplyCreate(incremental, a)
	}
	full := ComputeAggregate(activities)

	assert.InDelta(t, full.TotalDistanceKm, incremental.TotalDistanceKm, 0.01)
	assert.InDelta(t, full.TotalTimeMin, incremental.TotalTimeMin, 0.01)
	assert.Equal(t, full.TotalActivities, incremental.TotalActivities)
	assert.InDelta(t, full.AvgSpeedKmh, incremental.AvgSpeedKmh, 0.02)
	assert.Equal(t, full.LongestRunKm, incremental.LongestRunKm)
}

func TestComputeAggregateIgnoresZeroDurationForSpeed(t *testing.T) {
	// duration_min is validated >= 1 on write, but the recompute must not
	// divide by zero if a legacy row slips through.
	stats := ComputeAggregate([]Activity{run(10, 0), run(10, 60)})

	require.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 10.0, stats.AvgSpeedKmh)
}

func TestRoundingAtPersistenceBoundary(t *testing.T) {
	stats := ApplyCreate(ProfileStats{}, run(10.005, 33))

	assert.Equal(t, 10.01, stats.TotalDistanceKm)
	assert.Equal(t, 33.0, stats.TotalTimeMin)
}

func TestSpeedKmh(t *testing.T) {
	assert.Equal(t, 10.0, run(10, 60).SpeedKmh())
	assert.Equal(t, 0.0, run(10, 0).SpeedKmh())
}
