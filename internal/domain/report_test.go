package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStartIsMondayUTC(t *testing.T) {
	// 2025-10-29 is a Wednesday.
	wednesday := time.Date(2025, time.October, 29, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC), weekStart(wednesday))

	// Sunday folds back to the previous Monday.
	sunday := time.Date(2025, time.November, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC), weekStart(sunday))

	monday := time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStart(monday))
}

func TestBuildWeeklyReport(t *testing.T) {
	start := time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	current := []Activity{
		{ID: "a1", Title: "Tempo run", Type: ActivityRun, DistanceKm: 10, DurationMin: 50, CreatedAt: start.Add(8 * time.Hour)},
		{ID: "a2", Title: "Long ride", Type: ActivityRide, DistanceKm: 40, DurationMin: 90, CreatedAt: start.Add(32 * time.Hour)},
		{ID: "a3", Title: "Recovery jog", Type: ActivityRun, DistanceKm: 5, DurationMin: 35, CreatedAt: start.Add(33 * time.Hour)},
	}
	last := []Activity{
		{ID: "b1", Title: "Easy run", Type: ActivityRun, DistanceKm: 11, DurationMin: 60, CreatedAt: start.AddDate(0, 0, -3)},
	}

	report := BuildWeeklyReport("user-1", start, end, current, last, 50)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, start, report.WeekStart)
	assert.Equal(t, end, report.WeekEnd)

	assert.Equal(t, 55.0, report.Summary.TotalDistanceKm)
	assert.Equal(t, 3, report.Summary.TotalActivities)
	assert.Equal(t, 18.33, report.Summary.AvgDistanceKm)
	assert.Equal(t, 40.0, report.Summary.LongestDistanceKm)
	assert.Equal(t, 90, report.Summary.LongestDuration)

	assert.Equal(t, 55.0, report.GoalProgress.CurrentKm)
	assert.Equal(t, 50.0, report.GoalProgress.GoalKm)

	assert.Len(t, report.Activities, 3)
	assert.Equal(t, 12.0, report.Activities[0].SpeedKmh)

	// Tuesday has two activities, Monday one.
	assert.Equal(t, "Tuesday", report.Insights.MostActiveDay)
	// The ride at 26.67 km/h is the fastest entry.
	assert.Equal(t, "Long ride", report.Insights.FastestActivity)
	// Two distinct active dates: Monday and Tuesday.
	assert.Equal(t, "2 out of 7 days", report.Insights.Consistency)

	assert.Equal(t, 400.0, report.Comparison.DistanceChangePercent)
	assert.Equal(t, 2, report.Comparison.ActivitiesChangeCount)
}

func TestCompareWeeksAgainstEmptyLastWeek(t *testing.T) {
	comparison := compareWeeks(WeekStats{TotalDistanceKm: 12, TotalActivities: 2}, WeekStats{})

	assert.Equal(t, 100.0, comparison.DistanceChangePercent)
	assert.Equal(t, 2, comparison.ActivitiesChangeCount)
}

func TestComputeInsightsEmptyWeek(t *testing.T) {
	insights := computeInsights(nil, nil)

	assert.Equal(t, "N/A", insights.MostActiveDay)
	assert.Equal(t, "N/A", insights.FastestActivity)
	assert.Equal(t, "0 out of 7 days", insights.Consistency)
}

func TestComputeInsightsCountsDistinctActiveDays(t *testing.T) {
	monday := time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC)
	activities := []Activity{
		{Title: "Morning run", Type: ActivityRun, DistanceKm: 5, DurationMin: 30, CreatedAt: monday.Add(7 * time.Hour)},
		{Title: "Evening run", Type: ActivityRun, DistanceKm: 5, DurationMin: 30, CreatedAt: monday.Add(18 * time.Hour)},
	}
	timeline := []ReportActivity{
		{Title: "Morning run", SpeedKmh: 10},
		{Title: "Evening run", SpeedKmh: 10},
	}

	insights := computeInsights(activities, timeline)
	assert.Equal(t, "1 out of 7 days", insights.Consistency)
}

func TestSummarizeHorizon(t *testing.T) {
	activities := []Activity{
		{Type: ActivityRun, DistanceKm: 10, DurationMin: 55},
		{Type: ActivityRun, DistanceKm: 5, DurationMin: 30},
		{Type: ActivityRide, DistanceKm: 30, DurationMin: 75},
	}

	summary := SummarizeHorizon(activities, 28)

	assert.Equal(t, 28, summary.HorizonDays)
	assert.Equal(t, 3, summary.TotalActivities)
	assert.Equal(t, 45.0, summary.TotalDistanceKm)
	assert.Equal(t, 160, summary.TotalDurationMin)
	assert.Equal(t, 2, summary.Runs)
	assert.Equal(t, 1, summary.Rides)
	assert.Equal(t, 15.0, summary.AvgDistanceKm)
	assert.Equal(t, 53.3, summary.AvgDurationMin)
	// 85 min over 15 run km: 5.6667 min/km rounds to 5:40.
	assert.Equal(t, "5:40 min/km", summary.AvgRunPace)
}

func TestSummarizeHorizonEmpty(t *testing.T) {
	summary := SummarizeHorizon(nil, 7)

	assert.Equal(t, 0, summary.TotalActivities)
	assert.Equal(t, 0.0, summary.TotalDistanceKm)
	assert.Empty(t, summary.AvgRunPace)
}

func TestSummarizeHorizonPaceCarriesSeconds(t *testing.T) {
	// 119 min over 9.92 km is 11:59.76, which rounds up into the minute.
	activities := []Activity{
		{Type: ActivityRun, DistanceKm: 9.92, DurationMin: 119},
	}
	summary := SummarizeHorizon(activities, 7)
	assert.Equal(t, "12:00 min/km", summary.AvgRunPace)
}
