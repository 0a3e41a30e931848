package service

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/generator"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ProgramInput is the authored content of a program. Exercises replace the
// whole schedule on update.
type ProgramInput struct {
	Name            string
	Description     string
	DifficultyLevel domain.DifficultyLevel
	DurationWeeks   int
	IsPublic        bool
	Exercises       []domain.WorkoutPlanExercise
}

// Program is a plan with its schedule sorted by day then order in day.
type Program struct {
	Plan      domain.WorkoutPlan
	Exercises []domain.WorkoutPlanExercise
}

type ProgramService interface {
	CreateProgram(ctx context.Context, userID string, in ProgramInput) (*Program, error)
	UpdateProgram(ctx context.Context, userID, planID string, in ProgramInput) (*Program, error)
	GetProgram(ctx context.Context, userID, planID string) (*Program, error)
	ListPrograms(ctx context.Context, userID string) ([]domain.WorkoutPlan, error)
	DeleteProgram(ctx context.Context, userID, planID string) error
	// ImportGeneratedProgram stores a generated program in one transaction,
	// resolving exercises by case-insensitive name.
	ImportGeneratedProgram(ctx context.Context, userID string, program domain.GeneratedProgram) (*Program, error)
	GenerateProgram(ctx context.Context, userID string, prefs domain.GenerationPreferences) (*Program, error)
}

type programService struct {
	store     *repository.Store
	generator generator.Generator
	metrics   *metrics.Manager
}

// NewProgramService wires the program use cases. gen may be nil, then
// GenerateProgram returns generator.ErrUnavailable.
func NewProgramService(store *repository.Store, gen generator.Generator, m *metrics.Manager) ProgramService {
	return &programService{store: store, generator: gen, metrics: m}
}

func (s *programService) CreateProgram(ctx context.Context, userID string, in ProgramInput) (*Program, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	plan := domain.WorkoutPlan{
		Name:            in.Name,
		Description:     in.Description,
		DifficultyLevel: in.DifficultyLevel,
		DurationWeeks:   in.DurationWeeks,
		IsPublic:        in.IsPublic,
		CreatedBy:       userID,
	}
	err := s.store.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		planID, err := s.store.Plans.Create(ctx, &plan)
		if err != nil {
			return err
		}
		plan.ID = planID
		return s.store.Plans.ReplaceExercises(ctx, planID, in.Exercises)
	})
	if err != nil {
		return nil, domain.Persistence("create program", err)
	}

	log.WithFields(log.Fields{"plan_id": plan.ID, "user_id": userID}).Info("program created")
	return s.GetProgram(ctx, userID, plan.ID)
}

func (s *programService) UpdateProgram(ctx context.Context, userID, planID string, in ProgramInput) (*Program, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	plan.Name = in.Name
	plan.Description = in.Description
	plan.DifficultyLevel = in.DifficultyLevel
	plan.DurationWeeks = in.DurationWeeks
	plan.IsPublic = in.IsPublic

	err = s.store.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Plans.Update(ctx, plan); err != nil {
			return err
		}
		return s.store.Plans.ReplaceExercises(ctx, plan.ID, in.Exercises)
	})
	if err != nil {
		return nil, domain.Persistence("update program", err)
	}
	return s.GetProgram(ctx, userID, plan.ID)
}

// GetProgram hides private plans of other users behind ErrNotFound.
func (s *programService) GetProgram(ctx context.Context, userID, planID string) (*Program, error) {
	plan, err := s.store.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, domain.Persistence("get program", err)
	}
	if !plan.VisibleTo(userID) {
		return nil, domain.ErrNotFound
	}

	items, err := s.store.Plans.GetExercises(ctx, planID)
	if err != nil {
		return nil, domain.Persistence("get program exercises", err)
	}
	domain.SortPlanExercises(items)
	return &Program{Plan: *plan, Exercises: items}, nil
}

func (s *programService) ListPrograms(ctx context.Context, userID string) ([]domain.WorkoutPlan, error) {
	plans, err := s.store.Plans.ListVisible(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("list programs", err)
	}
	return plans, nil
}

// DeleteProgram refuses plans that workout sessions still reference.
func (s *programService) DeleteProgram(ctx context.Context, userID, planID string) error {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}

	err = s.store.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		inUse, err := s.store.Sessions.CountByPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("%w: %d sessions", domain.ErrPlanInUse, inUse)
		}
		return s.store.Plans.Delete(ctx, plan.ID, userID)
	})
	if err != nil {
		return domain.Persistence("delete program", err)
	}
	log.WithFields(log.Fields{"plan_id": plan.ID, "user_id": userID}).Info("program deleted")
	return nil
}

func (s *programService) ImportGeneratedProgram(ctx context.Context, userID string, program domain.GeneratedProgram) (result *Program, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		s.metrics.CounterProgramsImported.WithLabelValues(outcome).Inc()
	}()

	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if err := validateGenerated(program); err != nil {
		return nil, err
	}

	plan := domain.WorkoutPlan{
		Name:            strings.TrimSpace(program.Name),
		Description:     program.Description,
		DifficultyLevel: levelOrBeginner(program.Level),
		DurationWeeks:   program.DurationWeeks,
		CreatedBy:       userID,
	}

	err = s.store.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		planID, err := s.store.Plans.Create(ctx, &plan)
		if err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		plan.ID = planID

		var items []domain.WorkoutPlanExercise
		for _, day := range program.Days {
			for i, ex := range day.Exercises {
				exercise, err := s.resolveExercise(ctx, ex.Name)
				if err != nil {
					return fmt.Errorf("resolve exercise %q: %w", ex.Name, err)
				}
				items = append(items, domain.WorkoutPlanExercise{
					ExerciseID:  exercise.ID,
					DayNumber:   day.DayNumber,
					Sets:        ex.Sets,
					Reps:        ex.Reps,
					RestSeconds: ex.RestSeconds,
					OrderInDay:  i + 1,
				})
			}
		}
		if err := s.store.Plans.ReplaceExercises(ctx, planID, items); err != nil {
			return fmt.Errorf("store schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("program import rolled back")
		return nil, domain.Persistence("import program", err)
	}

	log.WithFields(log.Fields{"plan_id": plan.ID, "user_id": userID}).Info("program imported")
	return s.GetProgram(ctx, userID, plan.ID)
}

func (s *programService) GenerateProgram(ctx context.Context, userID string, prefs domain.GenerationPreferences) (*Program, error) {
	if s.generator == nil {
		return nil, generator.ErrUnavailable
	}
	if prefs.DaysPerWeek < 1 || prefs.DaysPerWeek > 7 {
		return nil, domain.Validationf("days per week must be between 1 and 7")
	}
	program, err := s.generator.Generate(ctx, prefs)
	if err != nil {
		return nil, err
	}
	return s.ImportGeneratedProgram(ctx, userID, *program)
}

// resolveExercise returns the exercise named name, creating it when missing.
func (s *programService) resolveExercise(ctx context.Context, name string) (*domain.Exercise, error) {
	exercise, err := s.store.Exercises.FindByName(ctx, name)
	if err == nil {
		return exercise, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	exercise = &domain.Exercise{
		Name:         strings.TrimSpace(name),
		MuscleGroups: []string{},
		Equipment:    domain.DefaultEquipment,
	}
	if _, err := s.store.Exercises.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *programService) ownedPlan(ctx context.Context, userID, planID string) (*domain.WorkoutPlan, error) {
	plan, err := s.store.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, domain.Persistence("get program", err)
	}
	if plan.CreatedBy != userID {
		if !plan.VisibleTo(userID) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrNotOwner
	}
	return plan, nil
}

func (s *programService) validate(ctx context.Context, in *ProgramInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Validationf("program name is required")
	}
	if in.DifficultyLevel == "" {
		in.DifficultyLevel = domain.DifficultyBeginner
	}
	if !in.DifficultyLevel.Valid() {
		return domain.Validationf("unknown difficulty level %q", in.DifficultyLevel)
	}
	if in.DurationWeeks < 0 {
		return domain.Validationf("duration weeks cannot be negative")
	}

	type slot struct{ day, order int }
	seen := make(map[slot]bool, len(in.Exercises))
	known := make(map[string]bool)
	for _, item := range in.Exercises {
		switch {
		case item.ExerciseID == "":
			return domain.Validationf("exercise id is required")
		case item.DayNumber < 1:
			return domain.Validationf("day number must be at least 1")
		case item.Sets < 1:
			return domain.Validationf("sets must be at least 1")
		case item.RestSeconds < 0:
			return domain.Validationf("rest seconds cannot be negative")
		case item.OrderInDay < 1:
			return domain.Validationf("order in day must be at least 1")
		}
		key := slot{item.DayNumber, item.OrderInDay}
		if seen[key] {
			return domain.Validationf("day %d has two exercises at position %d", item.DayNumber, item.OrderInDay)
		}
		seen[key] = true

		if known[item.ExerciseID] {
			continue
		}
		if _, err := s.store.Exercises.GetByID(ctx, item.ExerciseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Validationf("unknown exercise %q", item.ExerciseID)
			}
			return domain.Persistence("check exercise", err)
		}
		known[item.ExerciseID] = true
	}
	return nil
}

func validateGenerated(program domain.GeneratedProgram) error {
	if strings.TrimSpace(program.Name) == "" {
		return domain.Validationf("program name is required")
	}
	if program.DurationWeeks < 0 {
		return domain.Validationf("duration weeks cannot be negative")
	}
	days := make(map[int]bool, len(program.Days))
	for _, day := range program.Days {
		if day.DayNumber < 1 {
			return domain.Validationf("day number must be at least 1")
		}
		if days[day.DayNumber] {
			return domain.Validationf("day %d appears twice", day.DayNumber)
		}
		days[day.DayNumber] = true
		for _, ex := range day.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return domain.Validationf("exercise name is required on day %d", day.DayNumber)
			}
			if ex.Sets < 1 {
				return domain.Validationf("exercise %q needs at least one set", ex.Name)
			}
			if ex.RestSeconds < 0 {
				return domain.Validationf("exercise %q has negative rest", ex.Name)
			}
		}
	}
	return nil
}

func levelOrBeginner(level string) domain.DifficultyLevel {
	d := domain.DifficultyLevel(strings.ToLower(strings.TrimSpace(level)))
	if d.Valid() {
		return d
	}
	return domain.DifficultyBeginner
}
