package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// SystemPrompt instructs the model to translate outage notices
const SystemPrompt = `You translate Georgian utility outage notices into English for residents of Georgia.

Instructions:
- Translate the input phrase faithfully. Do not add or drop information.
- Street, district and village names are proper nouns: transliterate them using the national romanization (e.g. "ჭავჭავაძის ქუჩა" → "Chavchavadze Street").
- Keep numbers, house ranges and punctuation as they are.
- Expand the abbreviations "ქ." → "Street", "გამზ." → "Avenue", "ჩიხი" → "Dead End", "შეს." → "Lane".
- Use plain words, not jargon.

Return a JSON object with a single field "translation" holding the English text.`

// TranslationSchema constrains the model output
var TranslationSchema = openai.ChatCompletionResponseFormatJSONSchema{
	Name:   "translation",
	Strict: true,
	Schema: json.RawMessage(`{
		"type": "object",
		"properties": {
			"translation": {
				"type": "string",
				"description": "English translation of the input phrase"
			}
		},
		"required": ["translation"],
		"additionalProperties": false
	}`),
}

type translationResponse struct {
	Translation string `json:"translation"`
}

// OpenAITranslator is the Backend that asks a chat model for translations
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates an OpenAI backend. baseURL may be empty for
// the public API.
func NewOpenAITranslator(apiKey, model, baseURL string) *OpenAITranslator {
	if apiKey == "" {
		return &OpenAITranslator{model: model}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Translate asks the model for an English rendering of textGe
func (o *OpenAITranslator) Translate(ctx context.Context, textGe string) (string, error) {
	if o.client == nil {
		return "", errors.New("OpenAI client not initialized - missing API key")
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: textGe,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &TranslationSchema,
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI API")
	}

	var out translationResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}
	if strings.TrimSpace(out.Translation) == "" {
		return "", errors.New("OpenAI returned an empty translation")
	}
	return out.Translation, nil
}

// HealthCheck verifies OpenAI API connectivity
func (o *OpenAITranslator) HealthCheck(ctx context.Context) error {
	if o.client == nil {
		return errors.New("OpenAI client not initialized")
	}

	_, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Test",
			},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("OpenAI API health check failed: %w", err)
	}
	return nil
}
