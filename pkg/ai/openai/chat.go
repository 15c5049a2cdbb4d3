package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/litgraph/backend/pkg/ai"
	"github.com/litgraph/backend/pkg/logger"

	"github.com/openai/openai-go/v3"
)

// GenerateChat sends a conversation to the chat model and returns the
// assistant's reply as plain text.
//
// System prompts from the options are sent first, followed by messages in
// order. Temperature and top_p are always sent so near-deterministic decoding
// is explicit on the wire.
//
// Example:
//
//	msgs := []ai.ChatMessage{
//		{Role: "system", Message: ai.LiteraryAnalystPrompt},
//		{Role: "user", Message: prompt},
//	}
//	resp, err := client.GenerateChat(ctx, msgs, ai.WithTemperature(0.1), ai.WithTopP(0.1))
func (c *GraphOpenAIClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (string, error) {
	if c.ChatClient == nil {
		return "", fmt.Errorf("openai chat client is not configured")
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}, opts...)

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    toMessages(options.SystemPrompts, messages),
		Temperature: openai.Float(options.Temperature),
	}
	if options.TopP > 0 {
		body.TopP = openai.Float(options.TopP)
	}
	if options.Schema != nil {
		body.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        options.Schema.Name,
					Description: openai.String(options.Schema.Description),
					Schema:      options.Schema.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	c.metrics.Add(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})
	logger.Debug("Chat completion finished",
		"model", options.Model,
		"duration_ms", duration,
		"prompt_tokens", response.Usage.PromptTokens,
		"completion_tokens", response.Usage.CompletionTokens,
	)

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func toMessages(systemPrompts []string, messages []ai.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(systemPrompts)+len(messages))
	for _, sp := range systemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	for _, message := range messages {
		switch message.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(message.Message))
		case "user":
			msgs = append(msgs, openai.UserMessage(message.Message))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(message.Message))
		}
	}
	return msgs
}
