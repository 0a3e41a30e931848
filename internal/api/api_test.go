package api

import (
	"alcyxob/fittrack/internal/auth"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/sqldb/sqldbtest"
	"alcyxob/fittrack/internal/service"
	"alcyxob/fittrack/internal/workout"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testServer struct {
	router  *gin.Engine
	store   *repository.Store
	clock   *testClock
	metrics *metrics.Manager
}

const testCookie = "fittrack_session"

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := sqldbtest.NewStore(t)
	clock := &testClock{t: time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)}
	m, reg := metrics.NewTestManagerAndRegistry()

	issuer, err := auth.NewTokenIssuer("api-test-secret")
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(issuer, auth.NewLocalStore(1024*1024), time.Hour)

	trackers := workout.NewRegistry(clock.Now)
	m.ObserveActiveTrackers(trackers.Len)

	statsService := service.NewStatsService(store, time.UTC, clock.Now)
	services := Services{
		Auth:     service.NewAuthService(store.Users, authenticator),
		Exercise: service.NewExerciseService(store.Exercises),
		Program:  service.NewProgramService(store, nil, m),
		Session: service.NewSessionService(store, trackers, m,
			workout.WithClock(clock.Now), workout.WithTick(time.Millisecond)),
		Stats:  statsService,
		Export: service.NewExportService(store, nil, statsService, time.Minute),
	}

	router := gin.New()
	SetupRoutes(router, services, RouterOptions{
		Cookie:   CookieConfig{Name: testCookie, Secure: true},
		Metrics:  m,
		Gatherer: reg,
	})
	return &testServer{router: router, store: store, clock: clock, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in a user, returning the bearer token and user id.
func (s *testServer) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"fullName": "Test User", "email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login LoginResponse
	decode(t, w, &login)
	return login.Token, login.User.ID
}

func (s *testServer) createExercise(t *testing.T, name string) string {
	t.Helper()
	id, err := s.store.Exercises.Create(context.Background(), &domain.Exercise{Name: name, Equipment: "Barbell"})
	require.NoError(t, err)
	return id
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"fullName": "Ada", "email": "Ada@Example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code)
	var registered UserResponse
	decode(t, w, &registered)
	assert.Equal(t, "ada@example.com", registered.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ada@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bob@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", errorMessage(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var login LoginResponse
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookie, cookies[0].Name)
	assert.Equal(t, login.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	w = s.do(t, http.MethodGet, "/api/v1/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me UserResponse
	decode(t, w, &me)
	assert.Equal(t, registered.ID, me.ID)

	w = s.do(t, http.MethodPatch, "/api/v1/me", login.Token, gin.H{"fullName": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &me)
	assert.Equal(t, "Ada Lovelace", me.FullName)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked credential")
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "cookie@example.com")

	w := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/me", token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExercises(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "lifter@example.com")
	squat := s.createExercise(t, "Squat")

	w := s.do(t, http.MethodGet, "/api/v1/exercises", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ExerciseResponse
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, []string{}, list[0].MuscleGroups)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/"+squat, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrograms(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "owner@example.com")
	other, _ := s.signUp(t, "other@example.com")
	squat := s.createExercise(t, "Squat")

	program := gin.H{
		"name":     "Legs",
		"isPublic": true,
		"exercises": []gin.H{
			{"exerciseId": squat, "dayNumber": 1, "sets": 5, "reps": "5", "restSeconds": 120, "orderInDay": 1},
		},
	}
	w := s.do(t, http.MethodPost, "/api/v1/programs", owner, program)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created ProgramResponse
	decode(t, w, &created)
	assert.Equal(t, "beginner", created.DifficultyLevel)
	require.Len(t, created.Exercises, 1)
	path := "/api/v1/programs/" + created.ID

	w = s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusOK, w.Code, "public program")

	w = s.do(t, http.MethodPut, path, other, program)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/programs", owner, gin.H{"name": "Bad", "difficultyLevel": "elite"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/sessions", other, gin.H{"workoutPlanId": created.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrPlanInUse.Error(), errorMessage(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/programs", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []PlanResponse
	decode(t, w, &plans)
	assert.Len(t, plans, 1)
}

func TestImportAndGenerate(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "importer@example.com")

	generated := domain.GeneratedProgram{
		Name:  "Full Body",
		Level: "advanced",
		Days: []domain.GeneratedDay{{DayNumber: 1, Name: "A", Exercises: []domain.GeneratedExercise{
			{Name: "Kettlebell Swing", Sets: 3, Reps: "15", RestSeconds: 45},
		}}},
	}
	w := s.do(t, http.MethodPost, "/api/v1/programs/import", token, generated)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var imported ProgramResponse
	decode(t, w, &imported)
	assert.Equal(t, "advanced", imported.DifficultyLevel)
	assert.False(t, imported.IsPublic)
	require.Len(t, imported.Exercises, 1)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/"+imported.Exercises[0].ExerciseID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exercise ExerciseResponse
	decode(t, w, &exercise)
	assert.Equal(t, "Various", exercise.Equipment)

	w = s.do(t, http.MethodPost, "/api/v1/programs/generate", token, gin.H{"goal": "strength", "daysPerWeek": 3})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "runner@example.com")
	squat := s.createExercise(t, "Squat")
	bench := s.createExercise(t, "Bench")

	w := s.do(t, http.MethodPost, "/api/v1/programs", token, gin.H{
		"name": "Upper Lower",
		"exercises": []gin.H{
			{"exerciseId": squat, "dayNumber": 1, "sets": 3, "reps": "5", "restSeconds": 90, "orderInDay": 1},
			{"exerciseId": bench, "dayNumber": 1, "sets": 3, "reps": "8", "restSeconds": 60, "orderInDay": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var program ProgramResponse
	decode(t, w, &program)

	w = s.do(t, http.MethodPost, "/api/v1/sessions", token, gin.H{"workoutPlanId": program.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started SessionStateResponse
	decode(t, w, &started)
	assert.Equal(t, "active", started.State)
	base := "/api/v1/sessions/" + started.ID

	w = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{
		"dayNumber": 1, "exerciseId": squat,
		"sets": []gin.H{{"reps": 5, "weight": 100}, {"reps": 5, "weight": 100}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry ExerciseLogResponse
	decode(t, w, &entry)
	assert.Equal(t, 2, entry.SetsCompleted)

	w = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{"dayNumber": 1, "exerciseId": squat, "sets": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, base+"/progress?day=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress ProgressResponse
	decode(t, w, &progress)
	assert.Equal(t, 0.5, progress.Progress)

	w = s.do(t, http.MethodGet, base+"/progress?day=zero", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.clock.Advance(20 * time.Minute)
	w = s.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state SessionStateResponse
	decode(t, w, &state)
	assert.Equal(t, int64(1200), state.ElapsedSeconds)
	assert.Equal(t, []string{squat}, state.CompletedExerciseIDs)

	w = s.do(t, http.MethodPost, base+"/end", token, gin.H{"dayNumber": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ended WorkoutSessionResponse
	decode(t, w, &ended)
	require.NotNil(t, ended.Notes)
	assert.Equal(t, "Completed 1/2 exercises", *ended.Notes)

	w = s.do(t, http.MethodPost, base+"/end", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st StatsResponse
	decode(t, w, &st)
	assert.Equal(t, 1, st.CompletedSessions)
	assert.Equal(t, int64(1200), st.TotalWorkoutTimeSeconds)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1000.0, st.TotalVolume)

	w = s.do(t, http.MethodPost, "/api/v1/stats/export", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	other, _ := s.signUp(t, "other@example.com")
	w = s.do(t, http.MethodGet, base, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestStream(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "rester@example.com")
	squat := s.createExercise(t, "Squat")

	w := s.do(t, http.MethodPost, "/api/v1/programs", token, gin.H{
		"name":      "Rest",
		"exercises": []gin.H{{"exerciseId": squat, "dayNumber": 1, "sets": 3, "reps": "5", "restSeconds": 90, "orderInDay": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var program ProgramResponse
	decode(t, w, &program)

	w = s.do(t, http.MethodPost, "/api/v1/sessions", token, gin.H{"workoutPlanId": program.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var started SessionStateResponse
	decode(t, w, &started)
	base := "/api/v1/sessions/" + started.ID

	w = s.do(t, http.MethodGet, base+"/rest/stream", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no countdown yet")

	w = s.do(t, http.MethodPost, base+"/rest", token, gin.H{"planExerciseId": program.Exercises[0].ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rest RestResponse
	decode(t, w, &rest)
	assert.Equal(t, 90, rest.RemainingSeconds)

	s.clock.Advance(2 * time.Minute)
	w = s.do(t, http.MethodGet, base+"/rest/stream", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:rest")
	assert.Contains(t, w.Body.String(), `"remainingSeconds":0`)
	assert.NotContains(t, w.Body.String(), `"remainingSeconds":90`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/ping", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fittrack_test_server_requests_total")
	assert.Contains(t, w.Body.String(), "fittrack_test_server_active_trackers 0")

	token, _ := s.signUp(t, "metrics@example.com")
	squat := s.createExercise(t, "Squat")
	w = s.do(t, http.MethodPost, "/api/v1/programs", token, gin.H{
		"name":      "Legs",
		"exercises": []gin.H{{"exerciseId": squat, "dayNumber": 1, "sets": 3, "reps": "5", "restSeconds": 90, "orderInDay": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var program ProgramResponse
	decode(t, w, &program)
	w = s.do(t, http.MethodPost, "/api/v1/sessions", token, gin.H{"workoutPlanId": program.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, w.Body.String(), "fittrack_test_server_active_trackers 1")
}
