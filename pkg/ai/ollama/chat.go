package ollama

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/litgraph/backend/pkg/ai"
	"github.com/litgraph/backend/pkg/text"

	"github.com/ollama/ollama/api"
)

// Ollama's default context window; larger prompts need num_ctx raised.
const defaultContextTokens = 4096

// reserve for the reply on top of the prompt.
const replyTokens = 2048

// GenerateChat sends a non-streaming chat request and returns the assistant text.
func (c *GraphOllamaClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}, opts...)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	var prompt strings.Builder
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Message})
		prompt.WriteString(m.Message)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if options.TopP > 0 {
		req.Options["top_p"] = options.TopP
	}
	if options.Schema != nil {
		format, err := json.Marshal(options.Schema.Schema)
		if err != nil {
			return "", err
		}
		req.Format = format
	}

	// a BPE token covers at least one byte, so short prompts never need counting
	if prompt.Len()+replyTokens > defaultContextTokens {
		if tokens := text.EstimateTokens(prompt.String()); tokens > 0 && tokens+replyTokens > defaultContextTokens {
			req.Options["num_ctx"] = tokens + replyTokens
		}
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.metrics.Add(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return strings.TrimSpace(final.Message.Content), nil
}
