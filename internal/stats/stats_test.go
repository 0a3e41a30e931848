package stats

import (
	"alcyxob/fittrack/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday 2026-10-15, 18:00 local
var testNow = time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)

func completedSession(start time.Time, length time.Duration) SessionTimes {
	end := start.Add(length)
	return SessionTimes{StartedAt: start, CompletedAt: &end}
}

func daysAgo(n int, hour int) time.Time {
	d := testNow.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(nil, testNow, time.UTC)
	assert.Equal(t, Stats{}, st)

	st = Compute([]SessionTimes{}, testNow, time.UTC)
	assert.Equal(t, Stats{}, st)
}

func TestCompute_Totals(t *testing.T) {
	sessions := []SessionTimes{
		completedSession(daysAgo(0, 7), 45*time.Minute),
		completedSession(daysAgo(1, 7), 15*time.Minute),
		{StartedAt: daysAgo(0, 17)}, // still active
	}

	st := Compute(sessions, testNow, time.UTC)
	assert.Equal(t, 3, st.TotalSessions)
	assert.Equal(t, 2, st.CompletedSessions)
	assert.Equal(t, time.Hour, st.TotalWorkoutTime)
	assert.Equal(t, 30*time.Minute, st.AverageSessionTime)
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 3, st.ThisWeekSessions)
}

func TestCompute_NoCompletedSessions(t *testing.T) {
	st := Compute([]SessionTimes{{StartedAt: daysAgo(0, 9)}}, testNow, time.UTC)
	assert.Equal(t, 1, st.TotalSessions)
	assert.Zero(t, st.CompletedSessions)
	assert.Zero(t, st.AverageSessionTime)
	assert.Zero(t, st.CurrentStreak)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name     string
		days     []int
		expected int
	}{
		{name: "three consecutive days", days: []int{0, 1, 2}, expected: 3},
		{name: "gap yesterday", days: []int{0, 2}, expected: 1},
		{name: "same day twice", days: []int{0, 0, 1}, expected: 2},
		{name: "nothing today", days: []int{1, 2, 3}, expected: 0},
		{name: "unsorted input", days: []int{2, 0, 1, 5}, expected: 3},
		{name: "empty", days: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var completions []time.Time
			for i, d := range tt.days {
				completions = append(completions, daysAgo(d, 6+i))
			}
			assert.Equal(t, tt.expected, Streak(completions, testNow, time.UTC))
		})
	}
}

func TestStreak_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-10-15 16:00 UTC is already 2026-10-16 02:00 in loc.
	now := time.Date(2026, time.October, 15, 16, 0, 0, 0, time.UTC)
	completions := []time.Time{
		time.Date(2026, time.October, 15, 15, 0, 0, 0, time.UTC), // 16th in loc
		time.Date(2026, time.October, 15, 1, 0, 0, 0, time.UTC),  // 15th in loc
	}
	assert.Equal(t, 2, Streak(completions, now, loc))
	assert.Equal(t, 1, Streak(completions, now, time.UTC))
}

func TestThisWeekSessions_WeekStartsSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC)
	require.Equal(t, sunday, StartOfWeek(testNow, time.UTC))

	sessions := []SessionTimes{
		{StartedAt: sunday},                        // boundary counts
		{StartedAt: sunday.Add(-time.Second)},      // previous week
		completedSession(daysAgo(1, 8), time.Hour), // completion does not matter
	}
	st := Compute(sessions, testNow, time.UTC)
	assert.Equal(t, 2, st.ThisWeekSessions)
}

func TestStartOfWeek_OnSunday(t *testing.T) {
	sundayEvening := time.Date(2026, time.October, 18, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), StartOfWeek(sundayEvening, time.UTC))
}

func TestSessionDuration(t *testing.T) {
	start := testNow.Add(-90 * time.Minute)
	assert.Equal(t, 90*time.Minute, SessionDuration(SessionTimes{StartedAt: start}, testNow))

	s := completedSession(start, 40*time.Minute)
	assert.Equal(t, 40*time.Minute, SessionDuration(s, testNow))

	future := SessionTimes{StartedAt: testNow.Add(time.Minute)}
	assert.Zero(t, SessionDuration(future, testNow))
}

func TestVolume(t *testing.T) {
	logs := []domain.ExerciseLog{
		{RepsCompleted: []int{10, 8}, WeightUsed: []float64{50, 60}},
		{RepsCompleted: []int{12}, WeightUsed: []float64{0}},
	}
	assert.InDelta(t, 980.0, Volume(logs), 0.0001)
	assert.Zero(t, Volume(nil))
}

func TestFromSessions(t *testing.T) {
	end := testNow
	out := FromSessions([]domain.WorkoutSession{
		{StartedAt: testNow.Add(-time.Hour), CompletedAt: &end},
		{StartedAt: testNow},
	})
	require.Len(t, out, 2)
	assert.Equal(t, &end, out[0].CompletedAt)
	assert.Nil(t, out[1].CompletedAt)
}
