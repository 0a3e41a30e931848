package api

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"
	"alcyxob/fittrack/internal/workout"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionHandler drives workout sessions.
type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- DTOs ---

type StartSessionRequest struct {
	WorkoutPlanID string `json:"workoutPlanId" binding:"required"`
}

type SetRequest struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type CompleteExerciseRequest struct {
	DayNumber  int          `json:"dayNumber"`
	ExerciseID string       `json:"exerciseId" binding:"required"`
	Sets       []SetRequest `json:"sets"`
	Notes      string       `json:"notes"`
}

type StartRestRequest struct {
	PlanExerciseID string `json:"planExerciseId" binding:"required"`
}

type EndSessionRequest struct {
	DayNumber      int  `json:"dayNumber"`
	CompletedCount *int `json:"completedCount"`
	TotalCount     *int `json:"totalCount"`
}

type WorkoutSessionResponse struct {
	ID            string     `json:"id"`
	WorkoutPlanID string     `json:"workoutPlanId"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type SessionStateResponse struct {
	WorkoutSessionResponse
	State                string                 `json:"state"`
	ElapsedSeconds       int64                  `json:"elapsedSeconds"`
	DayNumber            int                    `json:"dayNumber"`
	Progress             float64                `json:"progress"`
	Scheduled            []PlanExerciseResponse `json:"scheduled"`
	CompletedExerciseIDs []string               `json:"completedExerciseIds"`
	Resting              bool                   `json:"resting"`
	RestRemainingSeconds int                    `json:"restRemainingSeconds"`
}

type ExerciseLogResponse struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	ExerciseID    string    `json:"exerciseId"`
	DayNumber     int       `json:"dayNumber"`
	SetsCompleted int       `json:"setsCompleted"`
	RepsCompleted []int     `json:"repsCompleted"`
	WeightUsed    []float64 `json:"weightUsed"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RestResponse struct {
	PlanExerciseID   string    `json:"planExerciseId"`
	ExerciseID       string    `json:"exerciseId"`
	Seconds          int       `json:"seconds"`
	StartedAt        time.Time `json:"startedAt"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

type ProgressResponse struct {
	DayNumber int     `json:"dayNumber"`
	Progress  float64 `json:"progress"`
}

func MapSessionToResponse(session *domain.WorkoutSession) WorkoutSessionResponse {
	return WorkoutSessionResponse{
		ID:            session.ID,
		WorkoutPlanID: session.WorkoutPlanID,
		StartedAt:     session.StartedAt,
		CompletedAt:   session.CompletedAt,
		Notes:         session.Notes,
	}
}

func MapSessionViewToResponse(view *service.SessionView) SessionStateResponse {
	return SessionStateResponse{
		WorkoutSessionResponse: MapSessionToResponse(&view.Session),
		State:                  view.State.String(),
		ElapsedSeconds:         int64(view.Elapsed / time.Second),
		DayNumber:              view.Day,
		Progress:               view.Progress,
		Scheduled:              MapPlanExercisesToResponse(view.Scheduled),
		CompletedExerciseIDs:   view.CompletedIDs,
		Resting:                view.Resting,
		RestRemainingSeconds:   view.RestRemaining,
	}
}

func MapExerciseLogToResponse(entry *domain.ExerciseLog) ExerciseLogResponse {
	return ExerciseLogResponse{
		ID:            entry.ID,
		SessionID:     entry.SessionID,
		ExerciseID:    entry.ExerciseID,
		DayNumber:     entry.DayNumber,
		SetsCompleted: entry.SetsCompleted,
		RepsCompleted: entry.RepsCompleted,
		WeightUsed:    entry.WeightUsed,
		Notes:         entry.Notes,
		CreatedAt:     entry.CreatedAt,
	}
}

func MapRestToResponse(rest *workout.Countdown) RestResponse {
	return RestResponse{
		PlanExerciseID:   rest.PlanExerciseID,
		ExerciseID:       rest.ExerciseID,
		Seconds:          rest.Seconds,
		StartedAt:        rest.StartedAt,
		RemainingSeconds: rest.Remaining(),
	}
}

// dayParam reads the optional ?day= query. 0 means the first scheduled day.
func dayParam(c *gin.Context) (int, error) {
	raw := c.Query("day")
	if raw == "" {
		return 0, nil
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 {
		return 0, domain.Validationf("day must be a positive number")
	}
	return day, nil
}

// --- Handler Methods ---

// ListSessions godoc
// @Summary List the caller's workout sessions
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutSessionResponse
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	sessions, err := h.sessionService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]WorkoutSessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapSessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, responses)
}

// StartSession godoc
// @Summary Start a workout session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartSessionRequest true "Plan to run"
// @Success 201 {object} SessionStateResponse
// @Failure 404 {object} gin.H "Plan not found"
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	view, err := h.sessionService.StartSession(c.Request.Context(), userID, req.WorkoutPlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionViewToResponse(view))
}

// GetSession godoc
// @Summary Get the live state of a session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param day query int false "Plan day, defaults to the first scheduled day"
// @Success 200 {object} SessionStateResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /sessions/{sessionId} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.sessionService.GetSession(c.Request.Context(), userID, c.Param("sessionId"), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionViewToResponse(view))
}

// CompleteExercise godoc
// @Summary Log a completed exercise
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body CompleteExerciseRequest true "Performed sets"
// @Success 201 {object} ExerciseLogResponse
// @Failure 409 {object} gin.H "Session is not active"
// @Router /sessions/{sessionId}/exercises [post]
func (h *SessionHandler) CompleteExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req CompleteExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	in := service.CompleteExerciseInput{
		Day:        req.DayNumber,
		ExerciseID: req.ExerciseID,
		Sets:       make([]domain.SetEntry, len(req.Sets)),
		Notes:      req.Notes,
	}
	for i, set := range req.Sets {
		in.Sets[i] = domain.SetEntry{Reps: set.Reps, Weight: set.Weight}
	}

	entry, err := h.sessionService.CompleteExercise(c.Request.Context(), userID, c.Param("sessionId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseLogToResponse(entry))
}

// StartRest godoc
// @Summary Start the rest countdown of a scheduled exercise
// @Description Replaces any running countdown of the session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body StartRestRequest true "Scheduled exercise"
// @Success 201 {object} RestResponse
// @Router /sessions/{sessionId}/rest [post]
func (h *SessionHandler) StartRest(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req StartRestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	rest, err := h.sessionService.StartRest(c.Request.Context(), userID, c.Param("sessionId"), req.PlanExerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapRestToResponse(rest))
}

// StreamRest godoc
// @Summary Follow the rest countdown
// @Description Server-sent "rest" events, one per remaining second, closed after 0.
// @Tags Sessions
// @Produce text/event-stream
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} RestResponse
// @Failure 404 {object} gin.H "No rest countdown"
// @Router /sessions/{sessionId}/rest/stream [get]
func (h *SessionHandler) StreamRest(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rest, err := h.sessionService.RestCountdown(c.Request.Context(), userID, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	event := MapRestToResponse(rest)
	for remaining := range rest.Watch(c.Request.Context()) {
		event.RemainingSeconds = remaining
		c.SSEvent("rest", event)
		c.Writer.Flush()
	}
}

// Progress godoc
// @Summary Completion fraction of a plan day
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param day query int false "Plan day, defaults to the first scheduled day"
// @Success 200 {object} ProgressResponse
// @Router /sessions/{sessionId}/progress [get]
func (h *SessionHandler) Progress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	day, progress, err := h.sessionService.Progress(c.Request.Context(), userID, c.Param("sessionId"), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{DayNumber: day, Progress: progress})
}

// EndSession godoc
// @Summary End a workout session
// @Description Writes "Completed X/Y exercises" into the session notes.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body EndSessionRequest false "Counts override"
// @Success 200 {object} WorkoutSessionResponse
// @Failure 409 {object} gin.H "Session already ended"
// @Router /sessions/{sessionId}/end [post]
func (h *SessionHandler) EndSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req EndSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}

	session, err := h.sessionService.EndSession(c.Request.Context(), userID, c.Param("sessionId"), service.EndInput{
		Day:       req.DayNumber,
		Completed: req.CompletedCount,
		Total:     req.TotalCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}
