package sqldb

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const exerciseLogColumns = `id, session_id, exercise_id, day_number, sets_completed, reps_completed, weight_used, notes, created_at`

// exerciseLogRow keeps the parallel per-set arrays as JSON text.
type exerciseLogRow struct {
	ID            string    `db:"id"`
	SessionID     string    `db:"session_id"`
	ExerciseID    string    `db:"exercise_id"`
	DayNumber     int       `db:"day_number"`
	SetsCompleted int       `db:"sets_completed"`
	RepsCompleted string    `db:"reps_completed"`
	WeightUsed    string    `db:"weight_used"`
	Notes         string    `db:"notes"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row exerciseLogRow) toDomain() (domain.ExerciseLog, error) {
	entry := domain.ExerciseLog{
		ID:            row.ID,
		SessionID:     row.SessionID,
		ExerciseID:    row.ExerciseID,
		DayNumber:     row.DayNumber,
		SetsCompleted: row.SetsCompleted,
		Notes:         row.Notes,
		CreatedAt:     row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.RepsCompleted), &entry.RepsCompleted); err != nil {
		return domain.ExerciseLog{}, err
	}
	if err := json.Unmarshal([]byte(row.WeightUsed), &entry.WeightUsed); err != nil {
		return domain.ExerciseLog{}, err
	}
	return entry, nil
}

type exerciseLogRepository struct {
	base
}

func NewExerciseLogRepository(db *sqlx.DB) repository.ExerciseLogRepository {
	return &exerciseLogRepository{base{db: db}}
}

func (r *exerciseLogRepository) Create(ctx context.Context, entry *domain.ExerciseLog) (string, error) {
	if entry.SessionID == "" || entry.ExerciseID == "" {
		return "", errors.New("exercise log requires sessionId and exerciseId")
	}
	reps, err := json.Marshal(entry.RepsCompleted)
	if err != nil {
		return "", err
	}
	weights, err := json.Marshal(entry.WeightUsed)
	if err != nil {
		return "", err
	}
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	err = NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.lockOpenSession(ctx, entry.SessionID); err != nil {
			return err
		}
		query := `INSERT INTO exercise_logs (` + exerciseLogColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err := r.conn(ctx).ExecContext(ctx, query,
			entry.ID,
			entry.SessionID,
			entry.ExerciseID,
			entry.DayNumber,
			entry.SetsCompleted,
			string(reps),
			string(weights),
			entry.Notes,
			entry.CreatedAt,
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

// lockOpenSession takes the row lock of a session that is not completed yet, so
// a concurrent Complete waits for the log insert. It returns ErrAlreadyCompleted
// for an ended session and ErrNotFound for a missing one.
func (r *exerciseLogRepository) lockOpenSession(ctx context.Context, sessionID string) error {
	result, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE workout_sessions SET notes = notes WHERE id = $1 AND completed_at IS NULL`, sessionID)
	if err != nil {
		return err
	}
	if err = expectAffected(result); !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var exists int
	err = sqlx.GetContext(ctx, r.conn(ctx), &exists, `SELECT 1 FROM workout_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return notFound(err)
	}
	return repository.ErrAlreadyCompleted
}

func (r *exerciseLogRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ExerciseLog, error) {
	return r.ListBySessions(ctx, []string{sessionID})
}

func (r *exerciseLogRepository) ListBySessions(ctx context.Context, sessionIDs []string) ([]domain.ExerciseLog, error) {
	if len(sessionIDs) == 0 {
		return []domain.ExerciseLog{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+exerciseLogColumns+` FROM exercise_logs WHERE session_id IN (?) ORDER BY created_at`, sessionIDs)
	if err != nil {
		return nil, err
	}
	conn := r.conn(ctx)

	var rows []exerciseLogRow
	if err := sqlx.SelectContext(ctx, conn, &rows, conn.Rebind(query), args...); err != nil {
		return nil, err
	}
	logs := make([]domain.ExerciseLog, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
