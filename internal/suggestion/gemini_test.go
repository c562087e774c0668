package suggestion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/stride/internal/domain"
)

func geminiResponse(phrase, rationale string) string {
	inner, _ := json.Marshal(map[string]any{
		"response": map[string]string{
			"workoutPhrase": phrase,
			"rationale":     rationale,
		},
	})
	outer, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": string(inner)}}}},
		},
	})
	return string(outer)
}

func TestGeminiPlannerPlan(t *testing.T) {
	var gotKey string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-goog-api-key")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiResponse("30 min tempo ride", "You have been riding consistently."))
	}))
	defer server.Close()

	planner := NewGeminiPlanner(server.URL, "key-123", 5*time.Second)
	suggestion, err := planner.Plan(context.Background(), domain.HorizonSummary{
		HorizonDays:     28,
		TotalActivities: 6,
		TotalDistanceKm: 120.5,
		Runs:            2,
		Rides:           4,
		AvgRunPace:      "5:40 min/km",
	})
	require.NoError(t, err)

	assert.Equal(t, "30 min tempo ride", suggestion.Suggestion)
	assert.Equal(t, "You have been riding consistently.", suggestion.Rationale)
	assert.Equal(t, "key-123", gotKey)

	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			ResponseMimeType string `json:"responseMimeType"`
		} `json:"generationConfig"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &req))
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	prompt := req.Contents[0].Parts[0].Text
	assert.True(t, strings.Contains(prompt, "last 28 days"), "prompt should mention the horizon: %s", prompt)
	assert.True(t, strings.Contains(prompt, "5:40 min/km"), "prompt should include the pace: %s", prompt)
}

func TestGeminiPlannerAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	planner := NewGeminiPlanner(server.URL, "key-123", 5*time.Second)
	_, err := planner.Plan(context.Background(), domain.HorizonSummary{HorizonDays: 7})
	assert.Error(t, err)
}

func TestGeminiPlannerNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	planner := NewGeminiPlanner(server.URL, "key-123", 5*time.Second)
	_, err := planner.Plan(context.Background(), domain.HorizonSummary{HorizonDays: 7})
	assert.Error(t, err)
}

func TestGeminiPlannerMalformedCandidateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outer, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "not json"}}}},
			},
		})
		_, _ = w.Write(outer)
	}))
	defer server.Close()

	planner := NewGeminiPlanner(server.URL, "key-123", 5*time.Second)
	_, err := planner.Plan(context.Background(), domain.HorizonSummary{HorizonDays: 7})
	assert.Error(t, err)
}

func TestStaticPlanner(t *testing.T) {
	planner := NewStaticPlanner()

	rideHeavy, err := planner.Plan(context.Background(), domain.HorizonSummary{HorizonDays: 28, Runs: 1, Rides: 5})
	require.NoError(t, err)
	assert.Equal(t, "30 min easy spin", rideHeavy.Suggestion)

	runHeavy, err := planner.Plan(context.Background(), domain.HorizonSummary{HorizonDays: 28, Runs: 4, Rides: 1})
	require.NoError(t, err)
	assert.Equal(t, "Easy 5 km recovery run", runHeavy.Suggestion)
	assert.NotEmpty(t, runHeavy.Rationale)
}
