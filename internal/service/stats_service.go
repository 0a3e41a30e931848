package service

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/stats"
	"context"
	"time"
)

// UserStats is the statistics of one user plus the lifted volume of all logs.
type UserStats struct {
	stats.Stats
	TotalVolume float64
}

type StatsService interface {
	ComputeStats(ctx context.Context, userID string) (*UserStats, error)
}

type statsService struct {
	store *repository.Store
	loc   *time.Location
	now   func() time.Time
}

// NewStatsService computes streaks and weeks in loc. A nil now means time.Now.
func NewStatsService(store *repository.Store, loc *time.Location, now func() time.Time) StatsService {
	if now == nil {
		now = time.Now
	}
	return &statsService{store: store, loc: loc, now: now}
}

func (s *statsService) ComputeStats(ctx context.Context, userID string) (*UserStats, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	sessions, logs, err := loadHistory(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		Stats:       stats.Compute(stats.FromSessions(sessions), s.now(), s.loc),
		TotalVolume: stats.Volume(logs),
	}, nil
}

// loadHistory reads every session of userID and their exercise logs.
func loadHistory(ctx context.Context, store *repository.Store, userID string) ([]domain.WorkoutSession, []domain.ExerciseLog, error) {
	sessions, err := store.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, domain.Persistence("list sessions", err)
	}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	logs, err := store.Logs.ListBySessions(ctx, ids)
	if err != nil {
		return nil, nil, domain.Persistence("list exercise logs", err)
	}
	return sessions, logs, nil
}
