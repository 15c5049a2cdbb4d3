package openai

import (
	"time"

	"github.com/litgraph/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// DefaultChatURL is the OpenAI-compatible endpoint used when none is configured.
const DefaultChatURL = "https://api.sambanova.ai/v1"

// GraphOpenAIClient talks to any OpenAI-compatible chat completion endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel string
	chatURL   string

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// ChatModel is the model used when a request does not override it.
// ChatURL and ChatKey configure the chat/completion API endpoint.
// Timeout bounds every request; MaxConcurrentRequests bounds in-flight calls.
type NewGraphOpenAIClientParams struct {
	ChatModel string
	ChatURL   string
	ChatKey   string

	Timeout               time.Duration
	MaxConcurrentRequests int64

	// RequestOptions are appended to the client options, mainly for tests.
	RequestOptions []option.RequestOption
}

// NewGraphOpenAIClient creates a client for the configured endpoint.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ChatModel: "Qwen2.5-Coder-32B-Instruct",
//		ChatURL:   "https://api.sambanova.ai/v1",
//		ChatKey:   os.Getenv("OPENAI_API_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}

	return &GraphOpenAIClient{
		chatModel: params.ChatModel,
		chatURL:   params.ChatURL,

		reqLock: semaphore.NewWeighted(maxReq),

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey, params.Timeout, params.RequestOptions...),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	timeout time.Duration,
	extra ...option.RequestOption,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are the caller's decision
		option.WithMaxRetries(0),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		options = append(options, option.WithRequestTimeout(timeout))
	}
	options = append(options, extra...)

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *GraphOpenAIClient) ResetMetrics() {
	c.metrics.Reset()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	return c.metrics.Snapshot()
}
