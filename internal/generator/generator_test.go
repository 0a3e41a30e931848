package generator

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const programJSON = `{
  "name": "Full Body Basics",
  "description": "Three days of compound lifts",
  "level": "beginner",
  "duration_weeks": 6,
  "days": [
    {"day_number": 1, "name": "A", "exercises": [
      {"name": "Back Squat", "sets": 3, "reps": "5", "rest_seconds": 120},
      {"name": "Bench Press", "sets": 3, "reps": "8-10", "rest_seconds": 90}
    ]},
    {"day_number": 2, "name": "B", "exercises": [
      {"name": "Deadlift", "sets": 1, "reps": "5", "rest_seconds": 180}
    ]}
  ]
}`

func fakeOpenAI(t *testing.T, content string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAIGenerator_NoKey(t *testing.T) {
	_, err := NewOpenAIGenerator("", "", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := fakeOpenAI(t, programJSON, &req)

	g, err := NewOpenAIGenerator("sk-test", srv.URL+"/v1", "")
	require.NoError(t, err)

	program, err := g.Generate(context.Background(), domain.GenerationPreferences{
		Goal:        "general strength",
		Level:       "beginner",
		DaysPerWeek: 2,
		Equipment:   []string{"barbell", "bench"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Full Body Basics", program.Name)
	assert.Equal(t, 6, program.DurationWeeks)
	require.Len(t, program.Days, 2)
	assert.Equal(t, "Bench Press", program.Days[0].Exercises[1].Name)
	assert.Equal(t, 180, program.Days[1].Exercises[0].RestSeconds)

	assert.Equal(t, openai.GPT4oMini, req.Model)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "general strength")
	assert.Contains(t, req.Messages[1].Content, "barbell, bench")
}

func TestOpenAIGenerator_BadOutput(t *testing.T) {
	srv := fakeOpenAI(t, "sorry, I can't do that", nil)

	g, err := NewOpenAIGenerator("sk-test", srv.URL+"/v1", "gpt-4o")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), domain.GenerationPreferences{})
	assert.ErrorIs(t, err, ErrBadOutput)
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("sk-wrong", srv.URL+"/v1", "")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), domain.GenerationPreferences{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadOutput)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain", programJSON, false},
		{"fenced", "```json\n" + programJSON + "\n```", false},
		{"no days", `{"name":"x","days":[]}`, true},
		{"no name", `{"days":[{"day_number":1}]}`, true},
		{"day zero", `{"name":"x","days":[{"day_number":0}]}`, true},
		{"negative sets", `{"name":"x","days":[{"day_number":1,"exercises":[{"name":"a","sets":-1}]}]}`, true},
		{"negative rest", `{"name":"x","days":[{"day_number":1,"exercises":[{"name":"a","sets":1,"rest_seconds":-5}]}]}`, true},
		{"not json", "nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadOutput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpenAIGenerator_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"The engine is currently overloaded","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewOpenAIGenerator("sk-test", srv.URL+"/v1", "")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), domain.GenerationPreferences{DaysPerWeek: 3})
	require.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrBadOutput)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatusCode)
}
