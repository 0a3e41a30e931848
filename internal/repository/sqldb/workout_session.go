package sqldb

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id, user_id, workout_plan_id, started_at, completed_at, notes`

type workoutSessionRepository struct {
	base
}

func NewWorkoutSessionRepository(db *sqlx.DB) repository.WorkoutSessionRepository {
	return &workoutSessionRepository{base{db: db}}
}

func (r *workoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (string, error) {
	if session.UserID == "" || session.WorkoutPlanID == "" {
		return "", errors.New("workout session requires userId and workoutPlanId")
	}
	session.ID = uuid.NewString()
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	session.StartedAt = session.StartedAt.UTC()
	session.CompletedAt = nil

	query := `INSERT INTO workout_sessions (id, user_id, workout_plan_id, started_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.conn(ctx).ExecContext(ctx, query, session.ID, session.UserID, session.WorkoutPlanID, session.StartedAt); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (r *workoutSessionRepository) GetByID(ctx context.Context, id, userID string) (*domain.WorkoutSession, error) {
	session := &domain.WorkoutSession{}
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, r.conn(ctx), session, query, id, userID); err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

func (r *workoutSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.WorkoutSession, error) {
	sessions := []domain.WorkoutSession{}
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE user_id = $1 ORDER BY started_at DESC`
	if err := sqlx.SelectContext(ctx, r.conn(ctx), &sessions, query, userID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Complete is guarded by completed_at IS NULL so the first end wins.
func (r *workoutSessionRepository) Complete(ctx context.Context, id, userID string, completedAt time.Time, notes string) error {
	query := `UPDATE workout_sessions SET completed_at = $1, notes = $2
	          WHERE id = $3 AND user_id = $4 AND completed_at IS NULL`
	result, err := r.conn(ctx).ExecContext(ctx, query, completedAt.UTC(), notes, id, userID)
	if err != nil {
		return err
	}
	if err = expectAffected(result); !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return repository.ErrAlreadyCompleted
}

func (r *workoutSessionRepository) CountByPlan(ctx context.Context, planID string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, r.conn(ctx), &count, `SELECT COUNT(*) FROM workout_sessions WHERE workout_plan_id = $1`, planID)
	return count, err
}

func expectAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
