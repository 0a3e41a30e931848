package domain

import "time"

// WorkoutSession is one timed run of a plan. It is active while CompletedAt is nil.
type WorkoutSession struct {
	ID            string     `bson:"_id" json:"id" db:"id"`
	UserID        string     `bson:"userId" json:"userId" db:"user_id"`
	WorkoutPlanID string     `bson:"workoutPlanId" json:"workoutPlanId" db:"workout_plan_id"`
	StartedAt     time.Time  `bson:"startedAt" json:"startedAt" db:"started_at"`
	CompletedAt   *time.Time `bson:"completedAt" json:"completedAt,omitempty" db:"completed_at"`
	Notes         *string    `bson:"notes,omitempty" json:"notes,omitempty" db:"notes"`
}

// Active reports whether the session has not been ended yet.
func (s *WorkoutSession) Active() bool {
	return s.CompletedAt == nil
}

// ExerciseLog records what was actually performed for one exercise in a session.
// RepsCompleted and WeightUsed are parallel and both have SetsCompleted entries.
type ExerciseLog struct {
	ID            string    `bson:"_id" json:"id"`
	SessionID     string    `bson:"sessionId" json:"sessionId"`
	ExerciseID    string    `bson:"exerciseId" json:"exerciseId"`
	DayNumber     int       `bson:"dayNumber" json:"dayNumber"`
	SetsCompleted int       `bson:"setsCompleted" json:"setsCompleted"`
	RepsCompleted []int     `bson:"repsCompleted" json:"repsCompleted"`
	WeightUsed    []float64 `bson:"weightUsed" json:"weightUsed"`
	Notes         string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// SetEntry is one performed set.
type SetEntry struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}
