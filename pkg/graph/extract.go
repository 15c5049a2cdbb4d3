package graph

import (
	"context"

	"github.com/litgraph/backend/internal/util"
	"github.com/litgraph/backend/pkg/ai"
)

const (
	DefaultTemperature = 0.1
	DefaultTopP        = 0.1
)

// Extractor asks the model for the character graph of one excerpt.
type Extractor struct {
	client      ai.GraphAIClient
	model       string
	temperature float64
	topP        float64
	maxTries    int
	structured  bool
}

// NewExtractorParams configures an Extractor.
//
// Model overrides the client's default model when set. MaxTries above 1
// retries failed calls; the default is a single attempt. Structured asks the
// backend to enforce the graph JSON schema.
type NewExtractorParams struct {
	Client      ai.GraphAIClient
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTries    int
	Structured  bool
}

func NewExtractor(params NewExtractorParams) *Extractor {
	e := &Extractor{
		client:      params.Client,
		model:       params.Model,
		temperature: DefaultTemperature,
		topP:        DefaultTopP,
		maxTries:    params.MaxTries,
		structured:  params.Structured,
	}
	if params.Temperature != nil {
		e.temperature = *params.Temperature
	}
	if params.TopP != nil {
		e.topP = *params.TopP
	}
	return e
}

// Messages builds the two-message conversation for an excerpt.
func Messages(excerpt string) []ai.ChatMessage {
	return []ai.ChatMessage{
		{Role: "system", Message: ai.LiteraryAnalystPrompt},
		{Role: "user", Message: ai.CharacterGraphPrompt + excerpt},
	}
}

// Extract returns the model's raw reply for excerpt. The reply is not
// checked for JSON; see ToGraph.
func (e *Extractor) Extract(ctx context.Context, excerpt string) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithTemperature(e.temperature),
		ai.WithTopP(e.topP),
	}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}
	if e.structured {
		opts = append(opts, ai.WithSchema(
			"character_graph",
			"Characters and their interactions in a book excerpt.",
			Schema(),
		))
	}

	msgs := Messages(excerpt)
	return util.RetryWithContext(ctx, e.maxTries, func(ctx context.Context) (string, error) {
		return e.client.GenerateChat(ctx, msgs, opts...)
	})
}
