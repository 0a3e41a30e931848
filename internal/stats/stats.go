// Package stats aggregates a user's workout history. Everything here is a pure
// function of its input: the clock and the calendar location are parameters.
package stats

import (
	"alcyxob/fittrack/internal/domain"
	"sort"
	"time"
)

// WeekStart is the first day of the week used for weekly counts.
const WeekStart = time.Sunday

// SessionTimes is the part of a workout session the aggregation needs.
type SessionTimes struct {
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Stats summarizes a list of sessions. The zero value describes an empty history.
type Stats struct {
	TotalSessions      int
	CompletedSessions  int
	TotalWorkoutTime   time.Duration
	AverageSessionTime time.Duration
	CurrentStreak      int
	ThisWeekSessions   int
}

// FromSessions projects domain sessions onto SessionTimes.
func FromSessions(sessions []domain.WorkoutSession) []SessionTimes {
	out := make([]SessionTimes, len(sessions))
	for i, s := range sessions {
		out[i] = SessionTimes{StartedAt: s.StartedAt, CompletedAt: s.CompletedAt}
	}
	return out
}

// Compute aggregates sessions as seen at now in loc. A nil loc means time.Local.
func Compute(sessions []SessionTimes, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	var st Stats
	st.TotalSessions = len(sessions)

	weekStart := StartOfWeek(now, loc)
	var completed []time.Time
	for _, s := range sessions {
		if !s.StartedAt.Before(weekStart) {
			st.ThisWeekSessions++
		}
		if s.CompletedAt == nil {
			continue
		}
		st.CompletedSessions++
		completed = append(completed, *s.CompletedAt)
		if d := s.CompletedAt.Sub(s.StartedAt); d > 0 {
			st.TotalWorkoutTime += d
		}
	}

	if st.CompletedSessions > 0 {
		st.AverageSessionTime = st.TotalWorkoutTime / time.Duration(st.CompletedSessions)
	}
	st.CurrentStreak = Streak(completed, now, loc)
	return st
}

// Streak counts consecutive calendar days, ending today, with at least one
// completion. Walking completions newest first, a completion d days before today
// extends the streak when d equals the current streak, is absorbed when it falls
// on an already counted day and ends the walk on a gap.
func Streak(completedAt []time.Time, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	days := make([]time.Time, len(completedAt))
	copy(days, completedAt)
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := StartOfDay(now, loc)
	streak := 0
	for _, t := range days {
		d := DaysBetween(StartOfDay(t, loc), today)
		switch {
		case d == streak:
			streak++
		case d < streak:
			// same calendar day as one already counted
		default:
			return streak
		}
	}
	return streak
}

// SessionDuration is completed − started for an ended session, or the time so far.
func SessionDuration(s SessionTimes, now time.Time) time.Duration {
	end := now
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	if d := end.Sub(s.StartedAt); d > 0 {
		return d
	}
	return 0
}

// Volume is the total lifted load, Σ reps×weight over every set.
func Volume(logs []domain.ExerciseLog) float64 {
	var total float64
	for _, l := range logs {
		for i, reps := range l.RepsCompleted {
			if i < len(l.WeightUsed) {
				total += float64(reps) * l.WeightUsed[i]
			}
		}
	}
	return total
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns midnight of the most recent WeekStart day on or before t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// DaysBetween counts calendar days from a to b, ignoring DST shifts.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
