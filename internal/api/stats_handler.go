package api

import (
	"alcyxob/fittrack/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves workout statistics and history export.
type StatsHandler struct {
	statsService  service.StatsService
	exportService service.ExportService
}

func NewStatsHandler(statsService service.StatsService, exportService service.ExportService) *StatsHandler {
	return &StatsHandler{statsService: statsService, exportService: exportService}
}

type StatsResponse struct {
	TotalSessions             int     `json:"totalSessions"`
	CompletedSessions         int     `json:"completedSessions"`
	TotalWorkoutTimeSeconds   int64   `json:"totalWorkoutTimeSeconds"`
	AverageSessionTimeSeconds int64   `json:"averageSessionTimeSeconds"`
	CurrentStreak             int     `json:"currentStreak"`
	ThisWeekSessions          int     `json:"thisWeekSessions"`
	TotalVolume               float64 `json:"totalVolume"`
}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func MapStatsToResponse(st *service.UserStats) StatsResponse {
	return StatsResponse{
		TotalSessions:             st.TotalSessions,
		CompletedSessions:         st.CompletedSessions,
		TotalWorkoutTimeSeconds:   int64(st.TotalWorkoutTime / time.Second),
		AverageSessionTimeSeconds: int64(st.AverageSessionTime / time.Second),
		CurrentStreak:             st.CurrentStreak,
		ThisWeekSessions:          st.ThisWeekSessions,
		TotalVolume:               st.TotalVolume,
	}
}

// GetStats godoc
// @Summary Workout statistics of the caller
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	st, err := h.statsService.ComputeStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapStatsToResponse(st))
}

// ExportHistory godoc
// @Summary Export the workout history
// @Description Uploads sessions, logs and stats as JSON and returns a presigned download URL.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 201 {object} ExportResponse
// @Failure 503 {object} gin.H "Export storage not configured"
// @Router /stats/export [post]
func (h *StatsHandler) ExportHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}
	export, err := h.exportService.ExportHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExportResponse{Key: export.Key, URL: export.URL, ExpiresAt: export.ExpiresAt})
}
