package caption

import (
	"context"
	"strings"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// Generator produces a caption for a topic.
type Generator interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Generate returns caption text, usually one to three lines.
	Generate(ctx context.Context, topic string) (string, error)
}

// SystemPrompt frames the model as a meme writer.
const SystemPrompt = "You are a witty meme caption generator. Generate funny, relatable, and clever captions for memes. Keep them short (1-3 lines), punchy, and relevant to tech/startup/developer culture. Use humor that resonates with developers, entrepreneurs, and tech enthusiasts."

// UserPrompt returns the per-request prompt for topic.
func UserPrompt(topic string) string {
	return "Generate a funny meme caption about: " + topic + ". Make it witty, relatable, and perfect for a meme. Just return the caption text, nothing else."
}

// User-facing messages returned with provider failures.
const (
	MsgRateLimited     = "Rate limit exceeded. Please try again later."
	MsgPaymentRequired = "Payment required. Please add credits to continue."
	MsgFailed          = "Failed to generate caption"
	MsgEmpty           = "No caption generated"
)

// Split turns caption text into top and bottom meme text.
//
// The caption is split on newlines and blank lines are dropped. The first
// remaining line becomes the top text (or the whole caption if there is
// none) and the second becomes the bottom text. Further lines are ignored.
func Split(caption string) (top, bottom string) {
	var lines []string
	for _, line := range strings.Split(caption, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	top = caption
	if len(lines) > 0 {
		top = lines[0]
	}
	if len(lines) > 1 {
		bottom = lines[1]
	}
	return top, bottom
}

// checkTopic returns the normalized topic, or an INVALID_TOPIC error.
func checkTopic(topic string) (string, error) {
	topic = errs.NormalizeTopic(topic)
	return topic, errs.ValidateTopic(topic)
}

func errEmpty() error {
	return errs.New(errs.ErrCodeInternal, MsgEmpty)
}
