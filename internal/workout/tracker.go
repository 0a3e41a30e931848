// Package workout holds the in-process state machine of a running workout
// session: elapsed time, per-exercise completion and the rest countdown.
package workout

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// State of a tracked session. Completed is terminal.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Clock returns the current instant.
type Clock func() time.Time

// Store persists the transitions of a tracker. A tracker only changes state
// after the store call returned without error.
type Store interface {
	CreateSession(ctx context.Context, session *domain.WorkoutSession) (string, error)
	CreateExerciseLog(ctx context.Context, entry *domain.ExerciseLog) (string, error)
	CompleteSession(ctx context.Context, sessionID, userID string, completedAt time.Time, notes string) error
}

type completionKey struct {
	day        int
	exerciseID string
}

// Tracker is the state machine of one workout session. It is safe for
// concurrent use.
type Tracker struct {
	mu sync.Mutex

	store Store
	now   Clock
	tick  time.Duration

	state     State
	session   domain.WorkoutSession
	schedule  map[int][]domain.WorkoutPlanExercise
	completed map[completionKey]struct{}
	rest      *Countdown
	touched   time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.now = c }
}

// WithTick sets how often rest countdown watchers re-check the remaining time.
func WithTick(d time.Duration) Option {
	return func(t *Tracker) { t.tick = d }
}

// NewTracker prepares a not yet started session of planID for userID.
func NewTracker(store Store, userID, planID string, schedule []domain.WorkoutPlanExercise, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		now:       time.Now,
		tick:      time.Second,
		state:     StateNotStarted,
		session:   domain.WorkoutSession{UserID: userID, WorkoutPlanID: planID},
		schedule:  make(map[int][]domain.WorkoutPlanExercise),
		completed: make(map[completionKey]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, item := range schedule {
		t.schedule[item.DayNumber] = append(t.schedule[item.DayNumber], item)
	}
	t.touched = t.now()
	return t
}

// Restore rebuilds a tracker from persisted rows, e.g. after a reload on another
// instance. Elapsed time comes from started_at, so nothing else is needed.
func Restore(store Store, session domain.WorkoutSession, schedule []domain.WorkoutPlanExercise, logs []domain.ExerciseLog, opts ...Option) *Tracker {
	t := NewTracker(store, session.UserID, session.WorkoutPlanID, schedule, opts...)
	t.session = session
	t.state = StateActive
	if session.CompletedAt != nil {
		t.state = StateCompleted
	}
	for _, l := range logs {
		t.completed[completionKey{day: l.DayNumber, exerciseID: l.ExerciseID}] = struct{}{}
	}
	return t
}

// Start persists the session row and moves NotStarted → Active.
func (t *Tracker) Start(ctx context.Context) (domain.WorkoutSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched = t.now()

	if t.state != StateNotStarted {
		return domain.WorkoutSession{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, t.state)
	}

	session := t.session
	session.StartedAt = t.now()
	id, err := t.store.CreateSession(ctx, &session)
	if err != nil {
		return domain.WorkoutSession{}, domain.Persistence("start workout session", err)
	}
	session.ID = id

	t.session = session
	t.state = StateActive
	return session, nil
}

// CompleteExercise logs the performed sets of an exercise and marks it done for
// day. Negative reps or weights are clamped to 0. Completing an exercise again
// appends another log.
func (t *Tracker) CompleteExercise(ctx context.Context, day int, exerciseID string, sets []domain.SetEntry, notes string) (domain.ExerciseLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched = t.now()

	if t.state != StateActive {
		return domain.ExerciseLog{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, t.state)
	}
	if exerciseID == "" {
		return domain.ExerciseLog{}, domain.Validationf("exercise id is required")
	}
	if day < 1 {
		return domain.ExerciseLog{}, domain.Validationf("day number must be at least 1")
	}
	if len(sets) == 0 {
		return domain.ExerciseLog{}, domain.Validationf("at least one set is required")
	}

	entry := domain.ExerciseLog{
		SessionID:     t.session.ID,
		ExerciseID:    exerciseID,
		DayNumber:     day,
		SetsCompleted: len(sets),
		RepsCompleted: make([]int, len(sets)),
		WeightUsed:    make([]float64, len(sets)),
		Notes:         notes,
		CreatedAt:     t.now(),
	}
	for i, set := range sets {
		entry.RepsCompleted[i] = max(set.Reps, 0)
		entry.WeightUsed[i] = clampWeight(set.Weight)
	}

	id, err := t.store.CreateExerciseLog(ctx, &entry)
	if err != nil {
		return domain.ExerciseLog{}, domain.Persistence("log exercise", err)
	}
	entry.ID = id

	t.completed[completionKey{day: day, exerciseID: exerciseID}] = struct{}{}
	return entry, nil
}

func clampWeight(w float64) float64 {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

// StartRest starts the rest countdown of planned. A running countdown is
// replaced, the last one wins.
func (t *Tracker) StartRest(planned domain.WorkoutPlanExercise) *Countdown {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched = t.now()

	if t.rest != nil {
		t.rest.cancel()
	}
	t.rest = newCountdown(planned, t.now, t.tick)
	return t.rest
}

// Rest returns the latest countdown, nil when none was started.
func (t *Tracker) Rest() *Countdown {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rest
}

// End persists completed_at with a summary note and moves Active → Completed.
func (t *Tracker) End(ctx context.Context, completedCount, totalCount int) (domain.WorkoutSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched = t.now()

	if t.state != StateActive {
		return domain.WorkoutSession{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, t.state)
	}
	if completedCount < 0 || totalCount < 0 {
		return domain.WorkoutSession{}, domain.Validationf("exercise counts must not be negative")
	}

	completedAt := t.now()
	notes := Summary(completedCount, totalCount)
	if err := t.store.CompleteSession(ctx, t.session.ID, t.session.UserID, completedAt, notes); err != nil {
		return domain.WorkoutSession{}, domain.Persistence("end workout session", err)
	}

	t.session.CompletedAt = &completedAt
	t.session.Notes = &notes
	t.state = StateCompleted
	if t.rest != nil {
		t.rest.cancel()
	}
	return t.session, nil
}

// Discard stops the rest countdown of a tracker that is being dropped.
func (t *Tracker) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rest != nil {
		t.rest.cancel()
	}
}

// Summary is the note stored when a session ends.
func Summary(completedCount, totalCount int) string {
	return fmt.Sprintf("Completed %d/%d exercises", completedCount, totalCount)
}

// Elapsed is now − started_at truncated to seconds, frozen once completed.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() time.Duration {
	switch t.state {
	case StateActive:
		return max(t.now().Sub(t.session.StartedAt), 0).Truncate(time.Second)
	case StateCompleted:
		return max(t.session.CompletedAt.Sub(t.session.StartedAt), 0).Truncate(time.Second)
	}
	return 0
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Session returns a copy of the tracked session row.
func (t *Tracker) Session() domain.WorkoutSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// IsCompleted reports whether exerciseID was completed for day.
func (t *Tracker) IsCompleted(day int, exerciseID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[completionKey{day: day, exerciseID: exerciseID}]
	return ok
}

// Schedule returns the planned exercises of day in presentation order.
func (t *Tracker) Schedule(day int) []domain.WorkoutPlanExercise {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := append([]domain.WorkoutPlanExercise(nil), t.schedule[day]...)
	domain.SortPlanExercises(items)
	return items
}

// Days returns the scheduled day numbers in ascending order.
func (t *Tracker) Days() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	days := make([]int, 0, len(t.schedule))
	for day := range t.schedule {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// Planned looks up a scheduled exercise by its plan exercise id.
func (t *Tracker) Planned(planExerciseID string) (domain.WorkoutPlanExercise, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, items := range t.schedule {
		for _, item := range items {
			if item.ID == planExerciseID {
				return item, true
			}
		}
	}
	return domain.WorkoutPlanExercise{}, false
}

// Progress is the fraction of day's scheduled exercises already completed.
// A day without scheduled exercises has progress 0.
func (t *Tracker) Progress(day int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	done, total := t.dayCountsLocked(day)
	return Progress(done, total)
}

// DayCounts returns the completed and scheduled exercise counts of day.
func (t *Tracker) DayCounts(day int) (completed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dayCountsLocked(day)
}

func (t *Tracker) dayCountsLocked(day int) (completed, total int) {
	for _, item := range t.schedule[day] {
		total++
		if _, ok := t.completed[completionKey{day: day, exerciseID: item.ExerciseID}]; ok {
			completed++
		}
	}
	return completed, total
}

// idleSince is the last time the tracker was used.
func (t *Tracker) idleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.touched
}
