package suggestion

import (
	"context"
	"fmt"

	"example.com/stride/internal/domain"
)

// StaticPlanner serves canned suggestions when no model API key is
// configured, mirroring the model's response contract.
type StaticPlanner struct{}

// NewStaticPlanner constructs a StaticPlanner.
func NewStaticPlanner() *StaticPlanner {
	return &StaticPlanner{}
}

// Plan picks a conservative suggestion from the horizon totals.
func (StaticPlanner) Plan(_ context.Context, summary domain.HorizonSummary) (domain.WorkoutSuggestion, error) {
	if summary.Rides > summary.Runs {
		return domain.WorkoutSuggestion{
			Suggestion: "30 min easy spin",
			Rationale:  fmt.Sprintf("You rode %d times in the last %d days; an easy spin keeps the legs moving without adding load.", summary.Rides, summary.HorizonDays),
		}, nil
	}
	return domain.WorkoutSuggestion{
		Suggestion: "Easy 5 km recovery run",
		Rationale:  fmt.Sprintf("Based on your mileage over the last %d days, a recovery run helps prevent overtraining while maintaining consistency.", summary.HorizonDays),
	}, nil
}
