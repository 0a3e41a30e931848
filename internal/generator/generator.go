// Package generator asks a language model for a structured workout program.
package generator

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnavailable = errors.New("program generator is not configured")
	ErrBadOutput   = errors.New("program generator returned an unusable program")
	// ErrUpstream marks transport and API failures of the model provider. They are retryable.
	ErrUpstream = errors.New("program generator is temporarily unavailable")
)

// Generator produces a program description that program import can consume.
type Generator interface {
	Generate(ctx context.Context, prefs domain.GenerationPreferences) (*domain.GeneratedProgram, error)
}

const systemPrompt = `You are a certified strength and conditioning coach.
Reply with a single JSON object and nothing else, shaped like:
{"name": string, "description": string, "level": "beginner"|"intermediate"|"advanced",
 "duration_weeks": int, "days": [{"day_number": int, "name": string,
 "exercises": [{"name": string, "sets": int, "reps": string, "rest_seconds": int}]}]}
Use common exercise names. day_number starts at 1.`

type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator returns a generator backed by the chat completions API.
// baseURL may be empty for api.openai.com.
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prefs domain.GenerationPreferences) (*domain.GeneratedProgram, error) {
	log.WithField("model", g.model).Debug("generating program")

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(prefs)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai chat completion: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrBadOutput)
	}

	return Decode(resp.Choices[0].Message.Content)
}

// Decode parses and sanity checks a generated program document.
func Decode(content string) (*domain.GeneratedProgram, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var program domain.GeneratedProgram
	if err := json.Unmarshal([]byte(content), &program); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	if strings.TrimSpace(program.Name) == "" || len(program.Days) == 0 {
		return nil, fmt.Errorf("%w: missing name or days", ErrBadOutput)
	}
	for _, day := range program.Days {
		if day.DayNumber < 1 {
			return nil, fmt.Errorf("%w: day number %d", ErrBadOutput, day.DayNumber)
		}
		for _, ex := range day.Exercises {
			if ex.Sets < 0 || ex.RestSeconds < 0 {
				return nil, fmt.Errorf("%w: negative sets or rest for %q", ErrBadOutput, ex.Name)
			}
		}
	}
	return &program, nil
}

func userPrompt(prefs domain.GenerationPreferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s program", orDefault(prefs.Level, "beginner"))
	if prefs.Goal != "" {
		fmt.Fprintf(&b, " for %s", prefs.Goal)
	}
	fmt.Fprintf(&b, " with %d training days per week", max(prefs.DaysPerWeek, 1))
	if prefs.DurationWeeks > 0 {
		fmt.Fprintf(&b, " lasting %d weeks", prefs.DurationWeeks)
	}
	b.WriteString(".")
	if len(prefs.Equipment) > 0 {
		fmt.Fprintf(&b, " Available equipment: %s.", strings.Join(prefs.Equipment, ", "))
	}
	if prefs.SessionMinutes > 0 {
		fmt.Fprintf(&b, " Each session should fit in %d minutes.", prefs.SessionMinutes)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
