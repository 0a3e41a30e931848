package service

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/workout"
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// SessionView is a snapshot of a tracked session for one plan day.
type SessionView struct {
	Session       domain.WorkoutSession
	State         workout.State
	Elapsed       time.Duration
	Day           int
	Progress      float64
	Scheduled     []domain.WorkoutPlanExercise
	CompletedIDs  []string
	Resting       bool
	RestRemaining int
}

type CompleteExerciseInput struct {
	Day        int
	ExerciseID string
	Sets       []domain.SetEntry
	Notes      string
}

// EndInput carries the counts written into the session notes. Nil counts are
// taken from the tracker for Day.
type EndInput struct {
	Day       int
	Completed *int
	Total     *int
}

type SessionService interface {
	StartSession(ctx context.Context, userID, planID string) (*SessionView, error)
	GetSession(ctx context.Context, userID, sessionID string, day int) (*SessionView, error)
	ListSessions(ctx context.Context, userID string) ([]domain.WorkoutSession, error)
	CompleteExercise(ctx context.Context, userID, sessionID string, in CompleteExerciseInput) (*domain.ExerciseLog, error)
	StartRest(ctx context.Context, userID, sessionID, planExerciseID string) (*workout.Countdown, error)
	RestCountdown(ctx context.Context, userID, sessionID string) (*workout.Countdown, error)
	// Progress resolves day < 1 to the first scheduled day and returns it.
	Progress(ctx context.Context, userID, sessionID string, day int) (int, float64, error)
	EndSession(ctx context.Context, userID, sessionID string, in EndInput) (*domain.WorkoutSession, error)
}

type sessionService struct {
	store    *repository.Store
	registry *workout.Registry
	metrics  *metrics.Manager
	opts     []workout.Option
}

// NewSessionService runs workout sessions through trackers held in registry.
// opts are passed to every tracker.
func NewSessionService(store *repository.Store, registry *workout.Registry, m *metrics.Manager, opts ...workout.Option) SessionService {
	return &sessionService{store: store, registry: registry, metrics: m, opts: opts}
}

func (s *sessionService) StartSession(ctx context.Context, userID, planID string) (*SessionView, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	plan, err := s.store.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, domain.Persistence("get plan", err)
	}
	if !plan.VisibleTo(userID) {
		return nil, domain.ErrNotFound
	}
	schedule, err := s.store.Plans.GetExercises(ctx, planID)
	if err != nil {
		return nil, domain.Persistence("get plan exercises", err)
	}

	tracker := workout.NewTracker(trackerStore{s.store}, userID, planID, schedule, s.opts...)
	if _, err := tracker.Start(ctx); err != nil {
		return nil, err
	}
	s.registry.Put(tracker)
	s.metrics.CounterSessionsStarted.Inc()

	log.WithFields(log.Fields{"session_id": tracker.Session().ID, "plan_id": planID, "user_id": userID}).Info("workout session started")
	return view(tracker, firstDay(schedule)), nil
}

func (s *sessionService) GetSession(ctx context.Context, userID, sessionID string, day int) (*SessionView, error) {
	tracker, err := s.freshTracker(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if day < 1 {
		day = defaultDay(tracker)
	}
	return view(tracker, day), nil
}

func (s *sessionService) ListSessions(ctx context.Context, userID string) ([]domain.WorkoutSession, error) {
	sessions, err := s.store.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("list sessions", err)
	}
	return sessions, nil
}

func (s *sessionService) CompleteExercise(ctx context.Context, userID, sessionID string, in CompleteExerciseInput) (*domain.ExerciseLog, error) {
	tracker, err := s.tracker(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if in.ExerciseID != "" {
		if _, err := s.store.Exercises.GetByID(ctx, in.ExerciseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.Validationf("unknown exercise %q", in.ExerciseID)
			}
			return nil, domain.Persistence("check exercise", err)
		}
	}

	entry, err := tracker.CompleteExercise(ctx, in.Day, in.ExerciseID, in.Sets, in.Notes)
	if err != nil {
		s.evictIfEnded(tracker, err)
		return nil, err
	}
	s.metrics.CounterExerciseLogs.Inc()
	return &entry, nil
}

func (s *sessionService) StartRest(ctx context.Context, userID, sessionID, planExerciseID string) (*workout.Countdown, error) {
	tracker, err := s.freshTracker(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if tracker.State() != workout.StateActive {
		return nil, domain.ErrInvalidTransition
	}
	planned, ok := tracker.Planned(planExerciseID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tracker.StartRest(planned), nil
}

func (s *sessionService) RestCountdown(ctx context.Context, userID, sessionID string) (*workout.Countdown, error) {
	tracker, err := s.tracker(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	rest := tracker.Rest()
	if rest == nil {
		return nil, domain.ErrNotFound
	}
	return rest, nil
}

func (s *sessionService) Progress(ctx context.Context, userID, sessionID string, day int) (int, float64, error) {
	tracker, err := s.freshTracker(ctx, userID, sessionID)
	if err != nil {
		return 0, 0, err
	}
	if day < 1 {
		day = defaultDay(tracker)
	}
	return day, tracker.Progress(day), nil
}

func (s *sessionService) EndSession(ctx context.Context, userID, sessionID string, in EndInput) (*domain.WorkoutSession, error) {
	tracker, err := s.tracker(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	day := in.Day
	if day < 1 {
		day = defaultDay(tracker)
	}
	completed, total := tracker.DayCounts(day)
	if in.Completed != nil {
		completed = *in.Completed
	}
	if in.Total != nil {
		total = *in.Total
	}

	session, err := tracker.End(ctx, completed, total)
	if err != nil {
		s.evictIfEnded(tracker, err)
		return nil, err
	}
	s.registry.Forget(sessionID)
	s.metrics.CounterSessionsCompleted.Inc()

	log.WithFields(log.Fields{"session_id": sessionID, "user_id": userID}).Info("workout session ended")
	return &session, nil
}

// tracker returns the live tracker of sessionID, restoring it from the store
// when this process does not hold it.
func (s *sessionService) tracker(ctx context.Context, userID, sessionID string) (*workout.Tracker, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.registry.Get(ctx, sessionID, userID, func(ctx context.Context) (*workout.Tracker, error) {
		session, err := s.store.Sessions.GetByID(ctx, sessionID, userID)
		if err != nil {
			return nil, domain.Persistence("get session", err)
		}
		schedule, err := s.store.Plans.GetExercises(ctx, session.WorkoutPlanID)
		if err != nil {
			return nil, domain.Persistence("get plan exercises", err)
		}
		logs, err := s.store.Logs.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, domain.Persistence("list exercise logs", err)
		}
		log.WithField("session_id", sessionID).Debug("restored workout tracker")
		return workout.Restore(trackerStore{s.store}, *session, schedule, logs, s.opts...), nil
	})
}

// freshTracker is tracker plus a check of an active tracker against the stored
// row, which another instance may have completed.
func (s *sessionService) freshTracker(ctx context.Context, userID, sessionID string) (*workout.Tracker, error) {
	tracker, err := s.tracker(ctx, userID, sessionID)
	if err != nil || tracker.State() != workout.StateActive {
		return tracker, err
	}
	session, err := s.store.Sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, domain.Persistence("get session", err)
	}
	if session.CompletedAt == nil {
		return tracker, nil
	}
	s.evict(tracker)
	return s.tracker(ctx, userID, sessionID)
}

// evictIfEnded drops a tracker the store reported as already completed.
func (s *sessionService) evictIfEnded(tracker *workout.Tracker, err error) {
	if errors.Is(err, domain.ErrInvalidTransition) && tracker.State() == workout.StateActive {
		s.evict(tracker)
	}
}

func (s *sessionService) evict(tracker *workout.Tracker) {
	tracker.Discard()
	s.registry.Forget(tracker.Session().ID)
	log.WithField("session_id", tracker.Session().ID).Info("dropped stale workout tracker, session was ended elsewhere")
}

func defaultDay(t *workout.Tracker) int {
	if days := t.Days(); len(days) > 0 {
		return days[0]
	}
	return 1
}

func firstDay(schedule []domain.WorkoutPlanExercise) int {
	day := 0
	for _, item := range schedule {
		if day == 0 || item.DayNumber < day {
			day = item.DayNumber
		}
	}
	return max(day, 1)
}

func view(t *workout.Tracker, day int) *SessionView {
	v := &SessionView{
		Session:   t.Session(),
		State:     t.State(),
		Elapsed:   t.Elapsed(),
		Day:       day,
		Progress:  t.Progress(day),
		Scheduled: t.Schedule(day),
	}
	v.CompletedIDs = []string{}
	for _, item := range v.Scheduled {
		if t.IsCompleted(day, item.ExerciseID) {
			v.CompletedIDs = append(v.CompletedIDs, item.ExerciseID)
		}
	}
	if rest := t.Rest(); rest != nil {
		v.RestRemaining = rest.Remaining()
		v.Resting = v.RestRemaining > 0
	}
	return v
}

// trackerStore persists tracker transitions through the repositories.
type trackerStore struct {
	store *repository.Store
}

func (ts trackerStore) CreateSession(ctx context.Context, session *domain.WorkoutSession) (string, error) {
	return ts.store.Sessions.Create(ctx, session)
}

func (ts trackerStore) CreateExerciseLog(ctx context.Context, entry *domain.ExerciseLog) (string, error) {
	return ts.store.Logs.Create(ctx, entry)
}

func (ts trackerStore) CompleteSession(ctx context.Context, sessionID, userID string, completedAt time.Time, notes string) error {
	return ts.store.Sessions.Complete(ctx, sessionID, userID, completedAt, notes)
}
