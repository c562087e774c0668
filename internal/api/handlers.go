// Package api exposes HTTP handlers for the stride backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/stride/internal/auth"
	"example.com/stride/internal/domain"
	"example.com/stride/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/profile", h.profile)
	mux.HandleFunc("/v1/dashboard", h.dashboard)
	mux.HandleFunc("/v1/reports/weekly", h.weeklyReport)
	mux.HandleFunc("/v1/suggestions", h.suggestions)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, id)
	case http.MethodPatch:
		h.updateActivity(w, r, id)
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, stats, err := h.service.CreateActivity(r.Context(), domain.CreateActivityInput{
		UserID:      claims.Subject,
		Type:        domain.ActivityType(req.Type),
		Title:       req.Title,
		Notes:       req.Notes,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ActivityMutationResponse{
		Activity: toActivityView(*activity),
		Stats:    toStatsView(stats),
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	activity, err := h.service.GetActivity(r.Context(), claims.Subject, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	patch := domain.ActivityPatch{
		Title:       req.Title,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
		Notes:       req.Notes,
	}
	if req.Type != nil {
		t := domain.ActivityType(*req.Type)
		patch.Type = &t
	}

	activity, stats, err := h.service.UpdateActivity(r.Context(), claims.Subject, id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ActivityMutationResponse{
		Activity: toActivityView(*activity),
		Stats:    toStatsView(stats),
	})
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	stats, err := h.service.DeleteActivity(r.Context(), claims.Subject, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteActivityResponse{Deleted: true, Stats: toStatsView(stats)})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := domain.ListFilter{Search: query.Get("search")}

	if sport := query.Get("sport"); sport != "" && sport != "all" {
		t := domain.ActivityType(sport)
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "validation_failed", "sport must be run, ride, or all")
			return
		}
		filter.Sport = t
	}
	if raw := query.Get("from"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid from date")
			return
		}
		filter.From = ts
	}
	if raw := query.Get("to"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid to date")
			return
		}
		filter.To = ts
	}

	limit := 20
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(query.Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	activities, next, err := h.service.ListActivities(r.Context(), claims.Subject, filter, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeProfileRead)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		UserID:       profile.UserID,
		DisplayName:  profile.DisplayName,
		Bio:          profile.Bio,
		MemberSince:  profile.CreatedAt,
		AllTimeStats: toStatsView(profile.Stats),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	recent := make([]ActivityView, 0, len(dashboard.Recent))
	for _, a := range dashboard.Recent {
		recent = append(recent, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Recent: recent,
		Summary: DashboardSummaryView{
			TotalDistanceKm: dashboard.Summary.TotalDistanceKm,
			TotalTimeHours:  dashboard.Summary.TotalTimeHours,
			Runs:            dashboard.Summary.Runs,
			Rides:           dashboard.Summary.Rides,
		},
	})
}

func (h *Handler) weeklyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	report, err := h.service.WeeklyReport(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyReportView(*report))
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	horizonDays := 28
	if r.Body != nil && r.ContentLength != 0 {
		var req SuggestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if req.HorizonDays != nil {
			horizonDays = *req.HorizonDays
		}
	}

	suggestion, summary, err := h.service.SuggestWorkout(r.Context(), claims.Subject, horizonDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := SuggestionResponse{
		Inputs: SuggestionInputs{
			Totals: SuggestionTotals{
				DistanceKm:  summary.TotalDistanceKm,
				DurationMin: summary.TotalDurationMin,
				Activities:  summary.TotalActivities,
			},
			Averages: SuggestionAverages{
				DistanceKm:  summary.AvgDistanceKm,
				DurationMin: summary.AvgDurationMin,
			},
		},
	}
	if suggestion != nil {
		resp.Suggestion = suggestion.Suggestion
		resp.Rationale = suggestion.Rationale
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireScope authenticates the request and enforces that the claims hold
// at least one of the given scopes.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func parseDate(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

// CreateActivityRequest is the payload for POST /v1/activities.
type CreateActivityRequest struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Notes       string  `json:"notes"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

// Validate ensures request correctness before the domain layer runs.
func (r CreateActivityRequest) Validate() error {
	if !domain.ActivityType(r.Type).Valid() {
		return errors.New("type must be run or ride")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if r.DistanceKm < 0 {
		return errors.New("distance_km must be positive")
	}
	if r.DurationMin < 1 {
		return errors.New("duration_min must be at least 1 minute")
	}
	return nil
}

// UpdateActivityRequest is the payload for PATCH /v1/activities/{id}.
type UpdateActivityRequest struct {
	Type        *string  `json:"type,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	DurationMin *int     `json:"duration_min,omitempty"`
}

// Validate ensures the patch is well formed.
func (r UpdateActivityRequest) Validate() error {
	if r.Type == nil && r.Title == nil && r.Notes == nil && r.DistanceKm == nil && r.DurationMin == nil {
		return errors.New("patch contains no fields")
	}
	if r.Type != nil && !domain.ActivityType(*r.Type).Valid() {
		return errors.New("type must be run or ride")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title is required")
	}
	if r.DistanceKm != nil && *r.DistanceKm < 0 {
		return errors.New("distance_km must be positive")
	}
	if r.DurationMin != nil && *r.DurationMin < 1 {
		return errors.New("duration_min must be at least 1 minute")
	}
	return nil
}

// SuggestionRequest is the payload for POST /v1/suggestions.
type SuggestionRequest struct {
	HorizonDays *int `json:"horizon_days,omitempty"`
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ActivityID  string    `json:"activity_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes,omitempty"`
	DistanceKm  float64   `json:"distance_km"`
	DurationMin int       `json:"duration_min"`
	SpeedKmh    float64   `json:"speed_kmh"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatsView exposes the profile aggregate.
type StatsView struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTimeMin    float64 `json:"total_time_min"`
	TotalActivities int     `json:"total_activities"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh"`
	LongestRunKm    float64 `json:"longest_run_km"`
}

// ActivityMutationResponse pairs the mutated activity with the reconciled stats.
type ActivityMutationResponse struct {
	Activity ActivityView `json:"activity"`
	Stats    StatsView    `json:"stats"`
}

// DeleteActivityResponse confirms a soft delete.
type DeleteActivityResponse struct {
	Deleted bool      `json:"deleted"`
	Stats   StatsView `json:"stats"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ProfileResponse merges identity fields with all-time stats.
type ProfileResponse struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio,omitempty"`
	MemberSince  time.Time `json:"member_since"`
	AllTimeStats StatsView `json:"all_time_stats"`
}

// DashboardSummaryView covers the running week.
type DashboardSummaryView struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTimeHours  float64 `json:"total_time_hours"`
	Runs            int     `json:"runs"`
	Rides           int     `json:"rides"`
}

// DashboardResponse combines recent activities with the weekly summary.
type DashboardResponse struct {
	Recent  []ActivityView       `json:"recent"`
	Summary DashboardSummaryView `json:"summary"`
}

// WeeklyReportView is the serialized weekly report.
type WeeklyReportView struct {
	ReportID     string               `json:"report_id"`
	UserID       string               `json:"user_id"`
	DateRange    DateRangeView        `json:"date_range"`
	Summary      WeekStatsView        `json:"summary_metrics"`
	GoalProgress GoalProgressView     `json:"goal_progress"`
	Activities   []ReportActivityView `json:"weekly_activities"`
	Insights     InsightsView         `json:"insights"`
	Comparison   ComparisonView       `json:"comparison_to_last_week"`
}

// DateRangeView bounds the report week.
type DateRangeView struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekStatsView summarizes one week.
type WeekStatsView struct {
	TotalDistanceKm   float64 `json:"total_distance_km"`
	TotalActivities   int     `json:"total_activities"`
	AvgDistanceKm     float64 `json:"avg_distance_km"`
	AvgSpeedKmh       float64 `json:"avg_speed_kmh"`
	AvgDurationMin    float64 `json:"avg_duration_min"`
	LongestDistanceKm float64 `json:"longest_distance_km"`
	LongestDuration   int     `json:"longest_duration_min"`
}

// GoalProgressView tracks distance against the weekly goal.
type GoalProgressView struct {
	CurrentKm float64 `json:"current"`
	GoalKm    float64 `json:"goal"`
}

// ReportActivityView is one timeline entry.
type ReportActivityView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	DistanceKm  float64   `json:"distance"`
	DurationMin int       `json:"duration"`
	SpeedKmh    float64   `json:"speed"`
}

// InsightsView carries the weekly highlights.
type InsightsView struct {
	MostActiveDay   string `json:"most_active_day"`
	FastestActivity string `json:"fastest_activity"`
	Consistency     string `json:"consistency"`
}

// ComparisonView captures deltas against the previous week.
type ComparisonView struct {
	DistanceChangePercent float64 `json:"distance_change_percent"`
	ActivitiesChangeCount int     `json:"activities_change_count"`
	AvgSpeedChangeKmh     float64 `json:"avg_speed_change"`
	AvgDurationChangeMin  float64 `json:"avg_duration_change"`
}

// SuggestionTotals sums the horizon window.
type SuggestionTotals struct {
	DistanceKm  float64 `json:"distance"`
	DurationMin int     `json:"duration"`
	Activities  int     `json:"activities"`
}

// SuggestionAverages holds per-activity means.
type SuggestionAverages struct {
	DistanceKm  float64 `json:"distance"`
	DurationMin float64 `json:"duration"`
}

// SuggestionInputs echoes the data the suggestion was based on.
type SuggestionInputs struct {
	Totals   SuggestionTotals   `json:"totals"`
	Averages SuggestionAverages `json:"averages"`
}

// SuggestionResponse is the payload for POST /v1/suggestions.
type SuggestionResponse struct {
	Suggestion string           `json:"suggestion,omitempty"`
	Rationale  string           `json:"rationale,omitempty"`
	Inputs     SuggestionInputs `json:"inputs"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "not_found", "profile not found")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:  a.ID,
		UserID:      a.UserID,
		Type:        string(a.Type),
		Title:       a.Title,
		Notes:       a.Notes,
		DistanceKm:  a.DistanceKm,
		DurationMin: a.DurationMin,
		SpeedKmh:    a.SpeedKmh(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toStatsView(stats domain.ProfileStats) StatsView {
	return StatsView{
		TotalDistanceKm: stats.TotalDistanceKm,
		TotalTimeMin:    stats.TotalTimeMin,
		TotalActivities: stats.TotalActivities,
		AvgSpeedKmh:     stats.AvgSpeedKmh,
		LongestRunKm:    stats.LongestRunKm,
	}
}

func toWeeklyReportView(report domain.WeeklyReport) WeeklyReportView {
	activities := make([]ReportActivityView, 0, len(report.Activities))
	for _, a := range report.Activities {
		activities = append(activities, ReportActivityView{
			ID:          a.ID,
			Title:       a.Title,
			Type:        string(a.Type),
			Date:        a.Date,
			DistanceKm:  a.DistanceKm,
			DurationMin: a.DurationMin,
			SpeedKmh:    a.SpeedKmh,
		})
	}
	return WeeklyReportView{
		ReportID:  report.ReportID,
		UserID:    report.UserID,
		DateRange: DateRangeView{Start: report.WeekStart, End: report.WeekEnd},
		Summary: WeekStatsView{
			TotalDistanceKm:   report.Summary.TotalDistanceKm,
			TotalActivities:   report.Summary.TotalActivities,
			AvgDistanceKm:     report.Summary.AvgDistanceKm,
			AvgSpeedKmh:       report.Summary.AvgSpeedKmh,
			AvgDurationMin:    report.Summary.AvgDurationMin,
			LongestDistanceKm: report.Summary.LongestDistanceKm,
			LongestDuration:   report.Summary.LongestDuration,
		},
		GoalProgress: GoalProgressView{CurrentKm: report.GoalProgress.CurrentKm, GoalKm: report.GoalProgress.GoalKm},
		Activities:   activities,
		Insights: InsightsView{
			MostActiveDay:   report.Insights.MostActiveDay,
			FastestActivity: report.Insights.FastestActivity,
			Consistency:     report.Insights.Consistency,
		},
		Comparison: ComparisonView{
			DistanceChangePercent: report.Comparison.DistanceChangePercent,
			ActivitiesChangeCount: report.Comparison.ActivitiesChangeCount,
			AvgSpeedChangeKmh:     report.Comparison.AvgSpeedChangeKmh,
			AvgDurationChangeMin:  report.Comparison.AvgDurationChangeMin,
		},
	}
}
