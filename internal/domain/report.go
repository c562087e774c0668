package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Read models: dashboard, weekly report, and the suggestion horizon
// summary. All are computed from windowed activity scans; nothing here
// writes to the store.

// DashboardSummary covers the running week (Monday start).
type DashboardSummary struct {
	TotalDistanceKm float64
	TotalTimeHours  float64
	Runs            int
	Rides           int
}

// Dashboard combines the most recent activities with the weekly summary.
type Dashboard struct {
	Recent  []Activity
	Summary DashboardSummary
}

// WeekStats summarizes a single calendar week of activities.
type WeekStats struct {
	TotalDistanceKm   float64
	TotalActivities   int
	AvgDistanceKm     float64
	AvgSpeedKmh       float64
	AvgDurationMin    float64
	LongestDistanceKm float64
	LongestDuration   int
}

// GoalProgress tracks weekly distance against a configured target.
type GoalProgress struct {
	CurrentKm float64
	GoalKm    float64
}

// ReportActivity is a single entry on the weekly report timeline.
type ReportActivity struct {
	ID          string
	Title       string
	Type        ActivityType
	Date        time.Time
	DistanceKm  float64
	DurationMin int
	SpeedKmh    float64
}

// ReportInsights holds the human-readable highlights of the week.
type ReportInsights struct {
	MostActiveDay   string
	FastestActivity string
	Consistency     string
}

// WeekComparison captures deltas against the previous week.
type WeekComparison struct {
	DistanceChangePercent float64
	ActivitiesChangeCount int
	AvgSpeedChangeKmh     float64
	AvgDurationChangeMin  float64
}

// WeeklyReport is the full report payload for one user and one week.
type WeeklyReport struct {
	ReportID     string
	UserID       string
	WeekStart    time.Time
	WeekEnd      time.Time
	Summary      WeekStats
	GoalProgress GoalProgress
	Activities   []ReportActivity
	Insights     ReportInsights
	Comparison   WeekComparison
}

// HorizonSummary condenses a trailing window of activities for the planner.
type HorizonSummary struct {
	HorizonDays      int
	TotalActivities  int
	TotalDistanceKm  float64
	TotalDurationMin int
	Runs             int
	Rides            int
	AvgRunPace       string
	AvgDistanceKm    float64
	AvgDurationMin   float64
}

// WorkoutSuggestion is the planner's answer.
type WorkoutSuggestion struct {
	Suggestion string
	Rationale  string
}

// weekStart truncates to the preceding Monday 00:00 UTC.
func weekStart(now time.Time) time.Time {
	now = now.UTC()
	diff := int(now.Weekday()) - int(time.Monday)
	if diff < 0 {
		diff += 7
	}
	day := now.AddDate(0, 0, -diff)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Dashboard returns the three most recent activities plus week-to-date totals.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	recent, _, err := s.repo.List(ctx, userID, ListFilter{}, nil, 3)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	weekly, err := s.repo.ListRange(ctx, userID, weekStart(now), now)
	if err != nil {
		return nil, err
	}

	var summary DashboardSummary
	for _, a := range weekly {
		summary.TotalDistanceKm += a.DistanceKm
		summary.TotalTimeHours += float64(a.DurationMin) / 60
		switch a.Type {
		case ActivityRun:
			summary.Runs++
		case ActivityRide:
			summary.Rides++
		}
	}
	summary.TotalDistanceKm = round2(summary.TotalDistanceKm)
	summary.TotalTimeHours = round2(summary.TotalTimeHours)

	return &Dashboard{Recent: recent, Summary: summary}, nil
}

// WeeklyReport builds the current-week report including the comparison to
// the previous week.
func (s *Service) WeeklyReport(ctx context.Context, userID string) (*WeeklyReport, error) {
	now := time.Now().UTC()
	thisStart := weekStart(now)
	thisEnd := thisStart.AddDate(0, 0, 7)
	lastStart := thisStart.AddDate(0, 0, -7)

	currentWeek, err := s.repo.ListRange(ctx, userID, thisStart, thisEnd)
	if err != nil {
		return nil, err
	}
	lastWeek, err := s.repo.ListRange(ctx, userID, lastStart, thisStart)
	if err != nil {
		return nil, err
	}

	report := BuildWeeklyReport(userID, thisStart, thisEnd, currentWeek, lastWeek, s.weeklyGoalKm)
	return &report, nil
}

// BuildWeeklyReport is the pure computation behind WeeklyReport.
func BuildWeeklyReport(userID string, start, end time.Time, currentWeek, lastWeek []Activity, goalKm float64) WeeklyReport {
	thisStats := computeWeekStats(currentWeek)
	lastStats := computeWeekStats(lastWeek)

	timeline := make([]ReportActivity, 0, len(currentWeek))
	for _, a := range currentWeek {
		timeline = append(timeline, ReportActivity{
			ID:          a.ID,
			Title:       a.Title,
			Type:        a.Type,
			Date:        a.CreatedAt,
			DistanceKm:  a.DistanceKm,
			DurationMin: a.DurationMin,
			SpeedKmh:    round2(a.SpeedKmh()),
		})
	}

	return WeeklyReport{
		ReportID:     uuid.NewString(),
		UserID:       userID,
		WeekStart:    start,
		WeekEnd:      end,
		Summary:      thisStats,
		GoalProgress: GoalProgress{CurrentKm: thisStats.TotalDistanceKm, GoalKm: goalKm},
		Activities:   timeline,
		Insights:     computeInsights(currentWeek, timeline),
		Comparison:   compareWeeks(thisStats, lastStats),
	}
}

func computeWeekStats(activities []Activity) WeekStats {
	var stats WeekStats
	var totalDuration int

	for _, a := range activities {
		stats.TotalActivities++
		stats.TotalDistanceKm += a.DistanceKm
		totalDuration += a.DurationMin
		if a.DistanceKm > stats.LongestDistanceKm {
			stats.LongestDistanceKm = a.DistanceKm
		}
		if a.DurationMin > stats.LongestDuration {
			stats.LongestDuration = a.DurationMin
		}
	}

	if stats.TotalActivities == 0 {
		return stats
	}

	n := float64(stats.TotalActivities)
	stats.AvgDistanceKm = round2(stats.TotalDistanceKm / n)
	stats.AvgDurationMin = round1(float64(totalDuration) / n)
	if totalDuration > 0 {
		stats.AvgSpeedKmh = round2(stats.TotalDistanceKm / (float64(totalDuration) / 60))
	}
	stats.TotalDistanceKm = round2(stats.TotalDistanceKm)
	stats.LongestDistanceKm = round2(stats.LongestDistanceKm)
	return stats
}

func computeInsights(activities []Activity, timeline []ReportActivity) ReportInsights {
	insights := ReportInsights{
		MostActiveDay:   "N/A",
		FastestActivity: "N/A",
		Consistency:     fmt.Sprintf("%d out of 7 days", countActiveDays(activities)),
	}
	if len(activities) == 0 {
		return insights
	}

	perDay := make(map[time.Weekday]int)
	for _, a := range activities {
		perDay[a.CreatedAt.UTC().Weekday()]++
	}
	best := activities[0].CreatedAt.UTC().Weekday()
	for day, count := range perDay {
		if count > perDay[best] {
			best = day
		}
	}
	insights.MostActiveDay = best.String()

	fastest := timeline[0]
	for _, entry := range timeline[1:] {
		if entry.SpeedKmh > fastest.SpeedKmh {
			fastest = entry
		}
	}
	insights.FastestActivity = fastest.Title
	return insights
}

// countActiveDays counts the distinct calendar days with at least one
// activity. Two workouts on the same date count as one day.
func countActiveDays(activities []Activity) int {
	days := make(map[string]struct{})
	for _, a := range activities {
		days[a.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
	}
	return len(days)
}

func compareWeeks(this, last WeekStats) WeekComparison {
	distanceChange := 100.0
	if last.TotalDistanceKm > 0 {
		distanceChange = round2((this.TotalDistanceKm - last.TotalDistanceKm) / last.TotalDistanceKm * 100)
	}
	return WeekComparison{
		DistanceChangePercent: distanceChange,
		ActivitiesChangeCount: this.TotalActivities - last.TotalActivities,
		AvgSpeedChangeKmh:     round2(this.AvgSpeedKmh - last.AvgSpeedKmh),
		AvgDurationChangeMin:  round1(this.AvgDurationMin - last.AvgDurationMin),
	}
}

// SummarizeHorizon condenses the trailing window used by the planner.
// Average run pace is formatted mm:ss per km; empty when no run distance.
func SummarizeHorizon(activities []Activity, horizonDays int) HorizonSummary {
	summary := HorizonSummary{HorizonDays: horizonDays}

	var runDistance float64
	var runDuration int
	for _, a := range activities {
		summary.TotalActivities++
		summary.TotalDistanceKm += a.DistanceKm
		summary.TotalDurationMin += a.DurationMin
		switch a.Type {
		case ActivityRun:
			summary.Runs++
			runDistance += a.DistanceKm
			runDuration += a.DurationMin
		case ActivityRide:
			summary.Rides++
		}
	}

	if summary.TotalActivities > 0 {
		n := float64(summary.TotalActivities)
		summary.AvgDistanceKm = round2(summary.TotalDistanceKm / n)
		summary.AvgDurationMin = round1(float64(summary.TotalDurationMin) / n)
	}
	summary.TotalDistanceKm = round2(summary.TotalDistanceKm)

	if runDistance > 0 {
		pace := float64(runDuration) / runDistance
		minutes := int(pace)
		seconds := int(math.Round((pace - float64(minutes)) * 60))
		if seconds == 60 {
			minutes, seconds = minutes+1, 0
		}
		summary.AvgRunPace = fmt.Sprintf("%d:%02d min/km", minutes, seconds)
	}
	return summary
}
