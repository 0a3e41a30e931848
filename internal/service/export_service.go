package service

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrExportUnavailable = errors.New("history export storage is not configured")

// Export points at an uploaded history document.
type Export struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type ExportService interface {
	// ExportHistory uploads the user's sessions, logs and stats as JSON and
	// returns a presigned download URL.
	ExportHistory(ctx context.Context, userID string) (*Export, error)
}

type exportService struct {
	store   *repository.Store
	files   storage.FileStorage
	stats   StatsService
	expires time.Duration
	now     func() time.Time
}

// NewExportService returns a service that fails with ErrExportUnavailable
// when files is nil.
func NewExportService(store *repository.Store, files storage.FileStorage, statsService StatsService, expires time.Duration) ExportService {
	if expires <= 0 {
		expires = storage.DefaultPresignedURLExpiry
	}
	return &exportService{
		store:   store,
		files:   files,
		stats:   statsService,
		expires: expires,
		now:     time.Now,
	}
}

type historyDocument struct {
	UserID     string           `json:"userId"`
	ExportedAt time.Time        `json:"exportedAt"`
	Stats      historyStats     `json:"stats"`
	Sessions   []historySession `json:"sessions"`
}

type historyStats struct {
	TotalSessions             int     `json:"totalSessions"`
	CompletedSessions         int     `json:"completedSessions"`
	TotalWorkoutTimeSeconds   int64   `json:"totalWorkoutTimeSeconds"`
	AverageSessionTimeSeconds int64   `json:"averageSessionTimeSeconds"`
	CurrentStreak             int     `json:"currentStreak"`
	ThisWeekSessions          int     `json:"thisWeekSessions"`
	TotalVolume               float64 `json:"totalVolume"`
}

type historySession struct {
	domain.WorkoutSession
	Exercises []domain.ExerciseLog `json:"exercises"`
}

func (s *exportService) ExportHistory(ctx context.Context, userID string) (*Export, error) {
	if s.files == nil {
		return nil, ErrExportUnavailable
	}
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	sessions, logs, err := loadHistory(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.stats.ComputeStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySession := make(map[string][]domain.ExerciseLog, len(sessions))
	for _, entry := range logs {
		bySession[entry.SessionID] = append(bySession[entry.SessionID], entry)
	}
	doc := historyDocument{
		UserID:     userID,
		ExportedAt: s.now().UTC(),
		Stats: historyStats{
			TotalSessions:             summary.TotalSessions,
			CompletedSessions:         summary.CompletedSessions,
			TotalWorkoutTimeSeconds:   int64(summary.TotalWorkoutTime / time.Second),
			AverageSessionTimeSeconds: int64(summary.AverageSessionTime / time.Second),
			CurrentStreak:             summary.CurrentStreak,
			ThisWeekSessions:          summary.ThisWeekSessions,
			TotalVolume:               summary.TotalVolume,
		},
		Sessions: make([]historySession, 0, len(sessions)),
	}
	for _, session := range sessions {
		entries := bySession[session.ID]
		if entries == nil {
			entries = []domain.ExerciseLog{}
		}
		doc.Sessions = append(doc.Sessions, historySession{WorkoutSession: session, Exercises: entries})
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, uuid.NewString())
	if err := s.files.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, domain.Persistence("upload history", err)
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, key, s.expires)
	if err != nil {
		return nil, domain.Persistence("presign history", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "key": key, "sessions": len(sessions)}).Info("history exported")
	return &Export{Key: key, URL: url, ExpiresAt: s.now().Add(s.expires)}, nil
}
