package sqldb

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const exerciseColumns = `id, name, name_key, description, muscle_groups, equipment, instructions, tips`

// exerciseRow stores muscle groups as a JSON array in a text column.
type exerciseRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	NameKey      string `db:"name_key"`
	Description  string `db:"description"`
	MuscleGroups string `db:"muscle_groups"`
	Equipment    string `db:"equipment"`
	Instructions string `db:"instructions"`
	Tips         string `db:"tips"`
}

func (row exerciseRow) toDomain() (domain.Exercise, error) {
	exercise := domain.Exercise{
		ID:           row.ID,
		Name:         row.Name,
		NameKey:      row.NameKey,
		Description:  row.Description,
		Equipment:    row.Equipment,
		Instructions: row.Instructions,
		Tips:         row.Tips,
		MuscleGroups: []string{},
	}
	if row.MuscleGroups != "" {
		if err := json.Unmarshal([]byte(row.MuscleGroups), &exercise.MuscleGroups); err != nil {
			return domain.Exercise{}, err
		}
	}
	return exercise, nil
}

type exerciseRepository struct {
	base
}

func NewExerciseRepository(db *sqlx.DB) repository.ExerciseRepository {
	return &exerciseRepository{base{db: db}}
}

func (r *exerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (string, error) {
	if strings.TrimSpace(exercise.Name) == "" {
		return "", errors.New("exercise name is required")
	}
	if exercise.MuscleGroups == nil {
		exercise.MuscleGroups = []string{}
	}
	groups, err := json.Marshal(exercise.MuscleGroups)
	if err != nil {
		return "", err
	}
	exercise.ID = uuid.NewString()
	exercise.NameKey = strings.ToLower(strings.TrimSpace(exercise.Name))

	query := `INSERT INTO exercises (` + exerciseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.conn(ctx).ExecContext(ctx, query,
		exercise.ID,
		exercise.Name,
		exercise.NameKey,
		exercise.Description,
		string(groups),
		exercise.Equipment,
		exercise.Instructions,
		exercise.Tips,
	)
	if isUniqueViolation(err) {
		return "", repository.ErrDuplicate
	}
	if err != nil {
		return "", err
	}
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	return r.getOne(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
}

func (r *exerciseRepository) FindByName(ctx context.Context, name string) (*domain.Exercise, error) {
	return r.getOne(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE name_key = $1`, strings.ToLower(strings.TrimSpace(name)))
}

func (r *exerciseRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Exercise, error) {
	var row exerciseRow
	if err := sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...); err != nil {
		return nil, notFound(err)
	}
	exercise, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepository) List(ctx context.Context) ([]domain.Exercise, error) {
	var rows []exerciseRow
	if err := sqlx.SelectContext(ctx, r.conn(ctx), &rows, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name_key`); err != nil {
		return nil, err
	}
	exercises := make([]domain.Exercise, 0, len(rows))
	for _, row := range rows {
		exercise, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, exercise)
	}
	return exercises, nil
}
