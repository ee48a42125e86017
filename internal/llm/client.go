package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gitgud-app/gitgud/internal/github"
)

// DefaultModel is used when OPENAI_MODEL is not configured.
const DefaultModel = "gpt-4o-mini"

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ru": "Russian",
}

// Client wraps the OpenAI chat-completions API for roast, verdict and
// translation generation.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a client for the given API key and model.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

// NewClientWithConfig creates a client from an explicit OpenAI config.
// Used by tests to point at a local server.
func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *Client) completeJSON(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateRoast produces a roast, advice and personality profile from the
// user's signals.
func (c *Client) GenerateRoast(ctx context.Context, signals *github.Signals, intensity Intensity) (*RoastResult, error) {
	content, err := c.completeJSON(ctx,
		"You are a helpful assistant that analyzes GitHub profiles and provides roasts, advice, and personality insights. Always respond with valid JSON only.",
		buildRoastPrompt(signals, intensity),
		roastTemperature(intensity),
	)
	if err != nil {
		return nil, err
	}

	var result RoastResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("openai returned invalid JSON: %w", err)
	}
	if result.Roast == "" || result.Advice == nil {
		return nil, fmt.Errorf("invalid response structure from OpenAI")
	}
	return &result, nil
}

// CompareUsers asks the model to judge two users head to head. reasoning is
// produced in the requested language.
func (c *Client) CompareUsers(ctx context.Context, user1, user2 UserSummary, language string) (*Verdict, error) {
	content, err := c.completeJSON(ctx,
		"You are an expert judge comparing GitHub developers. Always respond with valid JSON only.",
		buildComparePrompt(user1, user2, language),
		0.7,
	)
	if err != nil {
		return nil, err
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, fmt.Errorf("openai returned invalid JSON: %w", err)
	}
	switch verdict.Winner {
	case "user1", "user2", "tie":
	default:
		return nil, fmt.Errorf("invalid response structure from OpenAI: winner %q", verdict.Winner)
	}
	if verdict.Reasoning == "" {
		return nil, fmt.Errorf("invalid response structure from OpenAI: missing reasoning")
	}
	return &verdict, nil
}

// Translate returns the text translated to the target ISO language code.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	name, ok := languageNames[targetLanguage]
	if !ok {
		name = targetLanguage
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a professional translator. Translate the given text to %s. Only return the translated text, nothing else.", name),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("translation error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty translation response")
	}
	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("empty translation response")
	}
	return translated, nil
}

func roastTemperature(intensity Intensity) float32 {
	switch intensity {
	case IntensitySpicy:
		return 0.9
	case IntensityMedium:
		return 0.7
	default:
		return 0.5
	}
}
