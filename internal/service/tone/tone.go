// Package tone rewrites agent replies to a consistent support voice
// through an LLM. The transform is strictly best-effort: any failure
// leaves the original text untouched.
package tone

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"LiveDesk/internal/lib/sl"
)

const systemPrompt = "You rewrite customer support replies to be polite, clear and concise. " +
	"Keep the meaning and the language of the original text. Reply with the rewritten text only."

type Transformer struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewTransformer(logger *slog.Logger, apiKey, model string) *Transformer {
	return &Transformer{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.With(sl.Module("tone")),
	}
}

func (t *Transformer) Transform(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		return text, nil
	}
	return rewritten, nil
}
