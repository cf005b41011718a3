package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient generates captions with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed generator. A gateway-style model
// name such as "google/gemini-2.5-flash" is accepted and trimmed.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	model = strings.TrimPrefix(model, "google/")

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name implements Generator.
func (c *GeminiClient) Name() string { return "gemini" }

// Generate implements Generator.
func (c *GeminiClient) Generate(ctx context.Context, topic string) (string, error) {
	topic, err := checkTopic(topic)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(UserPrompt(topic)), config)
	if err != nil {
		return "", classifyGemini(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmpty()
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return errs.Wrap(errs.ErrCodeRateLimited, err, MsgRateLimited)
		case 402:
			return errs.Wrap(errs.ErrCodePaymentRequired, err, MsgPaymentRequired)
		}
	}
	return classify(err)
}
