package outbox

import (
	"testing"
	"time"
)

func TestBackoffDelayDoublesPerAttempt(t *testing.T) {
	m := NewDLQManager(nil, 5, time.Minute)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 16 * time.Minute},
	}
	for _, tc := range cases {
		if got := m.backoffDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestBackoffDelayCapsAtOneHour(t *testing.T) {
	m := NewDLQManager(nil, 20, time.Minute)
	if got := m.backoffDelay(12); got != time.Hour {
		t.Fatalf("expected 1h cap got %s", got)
	}
}

func TestNewDLQManagerDefaults(t *testing.T) {
	m := NewDLQManager(nil, 0, 0)
	if m.maxRetries != 5 {
		t.Fatalf("expected default max retries 5 got %d", m.maxRetries)
	}
	if m.baseDelay != time.Minute {
		t.Fatalf("expected default base delay 1m got %s", m.baseDelay)
	}
}
