package domain

// GeneratedProgram is the structured program description produced by a generator
// (or hand-written by a client) and consumed by program import.
type GeneratedProgram struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Level         string         `json:"level"`
	DurationWeeks int            `json:"duration_weeks"`
	Days          []GeneratedDay `json:"days"`
}

type GeneratedDay struct {
	DayNumber int                 `json:"day_number"`
	Name      string              `json:"name"`
	Exercises []GeneratedExercise `json:"exercises"`
}

type GeneratedExercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
	OrderInDay  int    `json:"order_in_day,omitempty"` // Ignored on import, position wins
}

// GenerationPreferences describe what the user asks the generator for.
type GenerationPreferences struct {
	Goal           string   `json:"goal"`
	Level          string   `json:"level"`
	DaysPerWeek    int      `json:"daysPerWeek"`
	DurationWeeks  int      `json:"durationWeeks"`
	Equipment      []string `json:"equipment,omitempty"`
	SessionMinutes int      `json:"sessionMinutes,omitempty"`
}
