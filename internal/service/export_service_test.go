package service

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFiles struct {
	objects     map[string][]byte
	contentType string
	putErr      error
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{objects: make(map[string][]byte)}
}

func (m *memoryFiles) PutObject(_ context.Context, key, contentType string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = body
	m.contentType = contentType
	return nil
}

func (m *memoryFiles) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example.com/" + key + "?expires=" + expires.String(), nil
}

func (m *memoryFiles) DeleteObject(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestExportService_ExportHistory(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.owner, f.planID)
	require.NoError(t, err)
	_, err = f.svc.CompleteExercise(ctx, f.owner, started.Session.ID, CompleteExerciseInput{
		Day: 1, ExerciseID: f.bench, Sets: []domain.SetEntry{{Reps: 8, Weight: 60}},
	})
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)
	_, err = f.svc.EndSession(ctx, f.owner, started.Session.ID, EndInput{Day: 1})
	require.NoError(t, err)

	files := newMemoryFiles()
	svc := NewExportService(f.store, files, NewStatsService(f.store, time.UTC, f.clock.Now), time.Minute)

	export, err := svc.ExportHistory(ctx, f.owner)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(export.Key, "exports/"+f.owner+"/"))
	assert.True(t, strings.HasSuffix(export.Key, ".json"))
	assert.Contains(t, export.URL, export.Key)
	assert.Equal(t, "application/json", files.contentType)

	var doc struct {
		UserID string `json:"userId"`
		Stats  struct {
			CompletedSessions       int     `json:"completedSessions"`
			TotalWorkoutTimeSeconds int64   `json:"totalWorkoutTimeSeconds"`
			TotalVolume             float64 `json:"totalVolume"`
		} `json:"stats"`
		Sessions []struct {
			ID        string               `json:"id"`
			Notes     string               `json:"notes"`
			Exercises []domain.ExerciseLog `json:"exercises"`
		} `json:"sessions"`
	}
	require.Contains(t, files.objects, export.Key)
	require.NoError(t, json.Unmarshal(files.objects[export.Key], &doc))

	assert.Equal(t, f.owner, doc.UserID)
	assert.Equal(t, 1, doc.Stats.CompletedSessions)
	assert.Equal(t, int64(1800), doc.Stats.TotalWorkoutTimeSeconds)
	assert.Equal(t, 480.0, doc.Stats.TotalVolume)
	require.Len(t, doc.Sessions, 1)
	assert.Equal(t, started.Session.ID, doc.Sessions[0].ID)
	assert.Equal(t, "Completed 1/2 exercises", doc.Sessions[0].Notes)
	require.Len(t, doc.Sessions[0].Exercises, 1)
	assert.Equal(t, f.bench, doc.Sessions[0].Exercises[0].ExerciseID)
}

func TestExportService_Unavailable(t *testing.T) {
	store := newTestStore(t)
	svc := NewExportService(store, nil, NewStatsService(store, time.UTC, nil), 0)

	_, err := svc.ExportHistory(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrExportUnavailable)
}

func TestExportService_UploadFailure(t *testing.T) {
	store := newTestStore(t)
	owner := createUser(t, store, "owner@example.com")
	files := newMemoryFiles()
	files.putErr = errors.New("connection reset")
	svc := NewExportService(store, files, NewStatsService(store, time.UTC, nil), time.Minute)

	_, err := svc.ExportHistory(context.Background(), owner)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, files.objects)
}
