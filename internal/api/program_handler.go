package api

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ProgramHandler serves program authoring, import and generation.
type ProgramHandler struct {
	programService service.ProgramService
}

func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- DTOs ---

type PlanExerciseRequest struct {
	ExerciseID  string `json:"exerciseId" binding:"required"`
	DayNumber   int    `json:"dayNumber"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
	OrderInDay  int    `json:"orderInDay"`
}

type ProgramRequest struct {
	Name            string                `json:"name" binding:"required"`
	Description     string                `json:"description"`
	DifficultyLevel string                `json:"difficultyLevel"`
	DurationWeeks   int                   `json:"durationWeeks"`
	IsPublic        bool                  `json:"isPublic"`
	Exercises       []PlanExerciseRequest `json:"exercises"`
}

type PlanResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DifficultyLevel string    `json:"difficultyLevel"`
	DurationWeeks   int       `json:"durationWeeks"`
	IsPublic        bool      `json:"isPublic"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type PlanExerciseResponse struct {
	ID          string `json:"id"`
	ExerciseID  string `json:"exerciseId"`
	DayNumber   int    `json:"dayNumber"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
	OrderInDay  int    `json:"orderInDay"`
}

type ProgramResponse struct {
	PlanResponse
	Exercises []PlanExerciseResponse `json:"exercises"`
}

func (r ProgramRequest) toInput() service.ProgramInput {
	in := service.ProgramInput{
		Name:            r.Name,
		Description:     r.Description,
		DifficultyLevel: domain.DifficultyLevel(r.DifficultyLevel),
		DurationWeeks:   r.DurationWeeks,
		IsPublic:        r.IsPublic,
		Exercises:       make([]domain.WorkoutPlanExercise, len(r.Exercises)),
	}
	for i, ex := range r.Exercises {
		in.Exercises[i] = domain.WorkoutPlanExercise{
			ExerciseID:  ex.ExerciseID,
			DayNumber:   ex.DayNumber,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			RestSeconds: ex.RestSeconds,
			OrderInDay:  ex.OrderInDay,
		}
	}
	return in
}

func MapPlanToResponse(plan *domain.WorkoutPlan) PlanResponse {
	return PlanResponse{
		ID:              plan.ID,
		Name:            plan.Name,
		Description:     plan.Description,
		DifficultyLevel: string(plan.DifficultyLevel),
		DurationWeeks:   plan.DurationWeeks,
		IsPublic:        plan.IsPublic,
		CreatedBy:       plan.CreatedBy,
		CreatedAt:       plan.CreatedAt,
		UpdatedAt:       plan.UpdatedAt,
	}
}

func MapPlanExercisesToResponse(items []domain.WorkoutPlanExercise) []PlanExerciseResponse {
	responses := make([]PlanExerciseResponse, len(items))
	for i, item := range items {
		responses[i] = PlanExerciseResponse{
			ID:          item.ID,
			ExerciseID:  item.ExerciseID,
			DayNumber:   item.DayNumber,
			Sets:        item.Sets,
			Reps:        item.Reps,
			RestSeconds: item.RestSeconds,
			OrderInDay:  item.OrderInDay,
		}
	}
	return responses
}

func MapProgramToResponse(program *service.Program) ProgramResponse {
	return ProgramResponse{
		PlanResponse: MapPlanToResponse(&program.Plan),
		Exercises:    MapPlanExercisesToResponse(program.Exercises),
	}
}

// --- Handler Methods ---

// ListPrograms godoc
// @Summary List programs visible to the caller
// @Description Public programs plus the caller's own.
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PlanResponse
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	plans, err := h.programService.ListPrograms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapPlanToResponse(&plans[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateProgram godoc
// @Summary Create a program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program"
// @Success 201 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), userID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// GetProgram godoc
// @Summary Get a program with its schedule
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} ProgramResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /programs/{programId} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	program, err := h.programService.GetProgram(c.Request.Context(), userID, c.Param("programId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// UpdateProgram godoc
// @Summary Replace a program
// @Description Only the creator may update. The schedule is replaced as a whole.
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param program body ProgramRequest true "Program"
// @Success 200 {object} ProgramResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Router /programs/{programId} [put]
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), userID, c.Param("programId"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// DeleteProgram godoc
// @Summary Delete a program
// @Tags Programs
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 204 "Deleted"
// @Failure 409 {object} gin.H "Program is used by workout sessions"
// @Router /programs/{programId} [delete]
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.programService.DeleteProgram(c.Request.Context(), userID, c.Param("programId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportProgram godoc
// @Summary Import a generated program
// @Description Stores the program atomically, creating unknown exercises.
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body domain.GeneratedProgram true "Generated program"
// @Success 201 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 503 {object} gin.H "Storage unavailable, nothing was stored"
// @Router /programs/import [post]
func (h *ProgramHandler) ImportProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req domain.GeneratedProgram
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.ImportGeneratedProgram(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// GenerateProgram godoc
// @Summary Generate and import a program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param preferences body domain.GenerationPreferences true "Preferences"
// @Success 201 {object} ProgramResponse
// @Failure 502 {object} gin.H "Generator returned an unusable program"
// @Failure 503 {object} gin.H "Generator not configured"
// @Router /programs/generate [post]
func (h *ProgramHandler) GenerateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req domain.GenerationPreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.GenerateProgram(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}
