package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/kpaulsen/apflow/internal/category"
)

const systemPrompt = `You categorize supply-house invoice line items for a plumbing/heating and HVAC contractor.
Answer with exactly one word: PH (plumbing/heating), HVAC, or UNKNOWN.`

// Classifier categorizes line items with a chat completion. It implements
// category.Classifier; callers fall back to the keyword scorer when it
// errors, so any failure here is safe to return as-is.
type Classifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewClassifier(apiKey, model string, timeout time.Duration) *Classifier {
	return &Classifier{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (c *Classifier) Classify(ctx context.Context, description string) (category.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		return category.Unknown, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return category.Unknown, fmt.Errorf("chat completion returned no choices")
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))

	switch category.Category(answer) {
	case category.PH, category.HVAC, category.Unknown:
		return category.Category(answer), nil
	}

	return category.Unknown, fmt.Errorf("unexpected classification %q", answer)
}
