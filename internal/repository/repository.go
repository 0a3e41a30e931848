package repository

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"time"
)

// Error constants for the repository layer. They alias the domain sentinels so
// services can match with errors.Is regardless of the backend.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrAlreadyCompleted = domain.ErrInvalidTransition
	ErrDuplicate        = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateFullName(ctx context.Context, id, fullName string) error
}

// ExerciseRepository defines the interface for the shared exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Exercise, error)
	// FindByName matches case-insensitively and returns ErrNotFound on miss.
	FindByName(ctx context.Context, name string) (*domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
}

// WorkoutPlanRepository defines the interface for plans and their scheduled exercises.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (string, error)
	GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error)
	// ListVisible returns public plans plus the ones created by userID.
	ListVisible(ctx context.Context, userID string) ([]domain.WorkoutPlan, error)
	// Update only matches plans created by plan.CreatedBy.
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	// Delete removes the plan and its scheduled exercises when owned by ownerID.
	Delete(ctx context.Context, id, ownerID string) error
	// ReplaceExercises deletes every scheduled exercise of the plan then inserts items.
	ReplaceExercises(ctx context.Context, planID string, items []domain.WorkoutPlanExercise) error
	// GetExercises returns the schedule sorted by day number then order in day.
	GetExercises(ctx context.Context, planID string) ([]domain.WorkoutPlanExercise, error)
}

// WorkoutSessionRepository defines the interface for workout sessions. Every read
// and write is filtered by the owning user.
type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (string, error)
	GetByID(ctx context.Context, id, userID string) (*domain.WorkoutSession, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WorkoutSession, error)
	// Complete sets completed_at and notes only while completed_at is still null.
	// It returns ErrAlreadyCompleted when the session was ended before.
	Complete(ctx context.Context, id, userID string, completedAt time.Time, notes string) error
	CountByPlan(ctx context.Context, planID string) (int64, error)
}

// ExerciseLogRepository is append-only.
type ExerciseLogRepository interface {
	Create(ctx context.Context, log *domain.ExerciseLog) (string, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.ExerciseLog, error)
	ListBySessions(ctx context.Context, sessionIDs []string) ([]domain.ExerciseLog, error)
}

// Transactor runs fn as one atomic unit of work. Repositories called with the
// context handed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users      UserRepository
	Exercises  ExerciseRepository
	Plans      WorkoutPlanRepository
	Sessions   WorkoutSessionRepository
	Logs       ExerciseLogRepository
	Transactor Transactor
	Close      func(ctx context.Context) error
}
