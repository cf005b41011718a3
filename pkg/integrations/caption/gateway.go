package caption

import (
	"context"
	"errors"
	"strings"
	"time"

	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/httputil"
	"github.com/matzehuels/memeforge/pkg/integrations"
)

// Gateway defaults.
const (
	DefaultGatewayURL   = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultGatewayModel = "google/gemini-2.5-flash"
)

// gatewayTimeout bounds a single completion call.
const gatewayTimeout = 30 * time.Second

// GatewayClient calls an OpenAI-compatible chat completions endpoint.
type GatewayClient struct {
	*integrations.Client
	endpoint string
	model    string
	apiKey   string
}

// NewGatewayClient creates a gateway client. Empty endpoint and model fall
// back to the defaults. Captions are never cached.
func NewGatewayClient(endpoint, model, apiKey string) *GatewayClient {
	if endpoint == "" {
		endpoint = DefaultGatewayURL
	}
	if model == "" {
		model = DefaultGatewayModel
	}
	client := integrations.NewClient(nil, "caption:", 0, nil)
	client.SetHTTPClient(httputil.NewClient(gatewayTimeout))
	return &GatewayClient{
		Client:   client,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
	}
}

// Name implements Generator.
func (c *GatewayClient) Name() string { return "gateway" }

// Generate implements Generator.
//
// Returns an error coded ErrCodeRateLimited for HTTP 429,
// ErrCodePaymentRequired for HTTP 402, and ErrCodeNetwork for any other
// upstream failure.
func (c *GatewayClient) Generate(ctx context.Context, topic string) (string, error) {
	topic, err := checkTopic(topic)
	if err != nil {
		return "", err
	}
	if c.apiKey == "" {
		return "", errs.New(errs.ErrCodeInvalidInput, "caption API key is not configured")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(topic)},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var resp chatResponse
	if err := c.PostJSON(ctx, c.endpoint, headers, req, &resp); err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmpty()
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, integrations.ErrRateLimited):
		return errs.Wrap(errs.ErrCodeRateLimited, err, MsgRateLimited)
	case errors.Is(err, integrations.ErrPaymentRequired):
		return errs.Wrap(errs.ErrCodePaymentRequired, err, MsgPaymentRequired)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, MsgFailed)
	default:
		return errs.Wrap(errs.ErrCodeNetwork, err, MsgFailed)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
