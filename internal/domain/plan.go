package domain

import (
	"sort"
	"time"
)

// DifficultyLevel of a workout plan.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// Valid reports whether d is one of the known levels.
func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// WorkoutPlan (a "program") is a named collection of exercises grouped into days.
type WorkoutPlan struct {
	ID              string          `bson:"_id" json:"id" db:"id"`
	Name            string          `bson:"name" json:"name" db:"name"`
	Description     string          `bson:"description,omitempty" json:"description,omitempty" db:"description"`
	DifficultyLevel DifficultyLevel `bson:"difficultyLevel" json:"difficultyLevel" db:"difficulty_level"`
	DurationWeeks   int             `bson:"durationWeeks" json:"durationWeeks" db:"duration_weeks"`
	IsPublic        bool            `bson:"isPublic" json:"isPublic" db:"is_public"`
	CreatedBy       string          `bson:"createdBy" json:"createdBy" db:"created_by"` // Owner, the only one allowed to mutate
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// VisibleTo reports whether userID may read the plan.
func (p *WorkoutPlan) VisibleTo(userID string) bool {
	return p.IsPublic || p.CreatedBy == userID
}

// WorkoutPlanExercise schedules an exercise on a plan day.
// Within one (plan, day) the OrderInDay values are unique.
type WorkoutPlanExercise struct {
	ID            string `bson:"_id" json:"id" db:"id"`
	WorkoutPlanID string `bson:"workoutPlanId" json:"workoutPlanId" db:"workout_plan_id"`
	ExerciseID    string `bson:"exerciseId" json:"exerciseId" db:"exercise_id"`
	DayNumber     int    `bson:"dayNumber" json:"dayNumber" db:"day_number"`
	Sets          int    `bson:"sets" json:"sets" db:"sets"`
	Reps          string `bson:"reps" json:"reps" db:"reps"` // Free-form range, e.g. "8-12"
	RestSeconds   int    `bson:"restSeconds" json:"restSeconds" db:"rest_seconds"`
	OrderInDay    int    `bson:"orderInDay" json:"orderInDay" db:"order_in_day"`
}

// SortPlanExercises orders by day number, then by order in day.
func SortPlanExercises(items []WorkoutPlanExercise) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayNumber != items[j].DayNumber {
			return items[i].DayNumber < items[j].DayNumber
		}
		return items[i].OrderInDay < items[j].OrderInDay
	})
}
