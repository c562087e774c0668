// Package suggestion produces workout suggestions from activity summaries.
package suggestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/stride/internal/domain"
)

// GeminiPlanner asks the Gemini generateContent API for a workout.
type GeminiPlanner struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewGeminiPlanner constructs a planner against the given endpoint.
func NewGeminiPlanner(endpoint, apiKey string, timeout time.Duration) *GeminiPlanner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GeminiPlanner{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Plan builds the coaching prompt, calls the model in JSON response mode,
// and extracts the suggestion from the candidate text.
func (p *GeminiPlanner) Plan(ctx context.Context, summary domain.HorizonSummary) (domain.WorkoutSuggestion, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": buildPrompt(summary)}}},
		},
		"generationConfig": map[string]string{
			"responseMimeType": "application/json",
		},
	})
	if err != nil {
		return domain.WorkoutSuggestion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.WorkoutSuggestion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.WorkoutSuggestion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return domain.WorkoutSuggestion{}, fmt.Errorf("gemini api error: %s", data)
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WorkoutSuggestion{}, err
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return domain.WorkoutSuggestion{}, fmt.Errorf("gemini returned no candidates")
	}

	var parsed struct {
		Response struct {
			WorkoutPhrase string `json:"workoutPhrase"`
			Rationale     string `json:"rationale"`
		} `json:"response"`
	}
	if err := json.Unmarshal([]byte(payload.Candidates[0].Content.Parts[0].Text), &parsed); err != nil {
		return domain.WorkoutSuggestion{}, fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if parsed.Response.WorkoutPhrase == "" {
		return domain.WorkoutSuggestion{}, fmt.Errorf("gemini response missing workout phrase")
	}

	return domain.WorkoutSuggestion{
		Suggestion: parsed.Response.WorkoutPhrase,
		Rationale:  parsed.Response.Rationale,
	}, nil
}

func buildPrompt(summary domain.HorizonSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful running and cycling coach. Based on the following summary of my last %d days of activity, please provide a workout suggestion for today.\n\n", summary.HorizonDays)
	fmt.Fprintf(&b, "My recent activity:\n- Total Runs: %d\n- Total Rides: %d\n- Total Distance: %.2f km", summary.Runs, summary.Rides, summary.TotalDistanceKm)
	if summary.AvgRunPace != "" {
		fmt.Fprintf(&b, "\n- Average Pace (running): %s", summary.AvgRunPace)
	}
	b.WriteString("\n\nReturn a JSON object with a single top-level key: \"response\". The value of \"response\" should be an object with two keys: \"workoutPhrase\", a short workout phrase (e.g., \"Recovery 3 km @ easy pace\" or \"30 min tempo ride\"), and \"rationale\", a brief explanation for the suggestion.")
	return b.String()
}
