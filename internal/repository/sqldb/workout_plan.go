package sqldb

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	planColumns         = `id, name, description, difficulty_level, duration_weeks, is_public, created_by, created_at, updated_at`
	planExerciseColumns = `id, workout_plan_id, exercise_id, day_number, sets, reps, rest_seconds, order_in_day`
)

type workoutPlanRepository struct {
	base
}

func NewWorkoutPlanRepository(db *sqlx.DB) repository.WorkoutPlanRepository {
	return &workoutPlanRepository{base{db: db}}
}

func (r *workoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (string, error) {
	if plan.CreatedBy == "" || plan.Name == "" {
		return "", errors.New("plan requires createdBy and name")
	}
	plan.ID = uuid.NewString()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	query := `INSERT INTO workout_plans (` + planColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.conn(ctx).ExecContext(ctx, query,
		plan.ID,
		plan.Name,
		plan.Description,
		string(plan.DifficultyLevel),
		plan.DurationWeeks,
		plan.IsPublic,
		plan.CreatedBy,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return "", err
	}
	return plan.ID, nil
}

func (r *workoutPlanRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	plan := &domain.WorkoutPlan{}
	err := sqlx.GetContext(ctx, r.conn(ctx), plan, `SELECT `+planColumns+` FROM workout_plans WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return plan, nil
}

func (r *workoutPlanRepository) ListVisible(ctx context.Context, userID string) ([]domain.WorkoutPlan, error) {
	plans := []domain.WorkoutPlan{}
	query := `SELECT ` + planColumns + ` FROM workout_plans
	          WHERE is_public = $1 OR created_by = $2
	          ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.conn(ctx), &plans, query, true, userID); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *workoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	query := `UPDATE workout_plans
	          SET name = $1, description = $2, difficulty_level = $3, duration_weeks = $4, is_public = $5, updated_at = $6
	          WHERE id = $7 AND created_by = $8`

	result, err := r.conn(ctx).ExecContext(ctx, query,
		plan.Name,
		plan.Description,
		string(plan.DifficultyLevel),
		plan.DurationWeeks,
		plan.IsPublic,
		plan.UpdatedAt,
		plan.ID,
		plan.CreatedBy,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *workoutPlanRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn := r.conn(ctx)
	_, err := conn.ExecContext(ctx,
		`DELETE FROM workout_plan_exercises WHERE workout_plan_id = $1
		 AND EXISTS (SELECT 1 FROM workout_plans WHERE id = $2 AND created_by = $3)`,
		id, id, ownerID)
	if err != nil {
		return err
	}

	result, err := conn.ExecContext(ctx, `DELETE FROM workout_plans WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *workoutPlanRepository) ReplaceExercises(ctx context.Context, planID string, items []domain.WorkoutPlanExercise) error {
	conn := r.conn(ctx)
	if _, err := conn.ExecContext(ctx, `DELETE FROM workout_plan_exercises WHERE workout_plan_id = $1`, planID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].WorkoutPlanID = planID
	}
	query := `INSERT INTO workout_plan_exercises (` + planExerciseColumns + `)
	          VALUES (:id, :workout_plan_id, :exercise_id, :day_number, :sets, :reps, :rest_seconds, :order_in_day)`
	_, err := sqlx.NamedExecContext(ctx, conn, query, items)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *workoutPlanRepository) GetExercises(ctx context.Context, planID string) ([]domain.WorkoutPlanExercise, error) {
	items := []domain.WorkoutPlanExercise{}
	query := `SELECT ` + planExerciseColumns + ` FROM workout_plan_exercises
	          WHERE workout_plan_id = $1
	          ORDER BY day_number, order_in_day`
	if err := sqlx.SelectContext(ctx, r.conn(ctx), &items, query, planID); err != nil {
		return nil, err
	}
	return items, nil
}
