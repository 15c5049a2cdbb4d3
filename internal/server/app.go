package server

import (
	"context"
	"encoding/json"
	"fmt"

	mid "github.com/litgraph/backend/internal/server/middleware"
	"github.com/litgraph/backend/internal/util"
	"github.com/litgraph/backend/pkg/ai"
	oai "github.com/litgraph/backend/pkg/ai/ollama"
	gai "github.com/litgraph/backend/pkg/ai/openai"
	"github.com/litgraph/backend/pkg/archive"
	"github.com/litgraph/backend/pkg/cache"
	pgcache "github.com/litgraph/backend/pkg/cache/pgx"
	s3cache "github.com/litgraph/backend/pkg/cache/s3"
	"github.com/litgraph/backend/pkg/graph"
	"github.com/litgraph/backend/pkg/logger"
	"github.com/litgraph/backend/pkg/pipeline"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultChatModel = "Qwen2.5-Coder-32B-Instruct"
	defaultPort      = "5059"
)

// NewAIClient builds the model client selected by AI_ADAPTER.
func NewAIClient() (ai.GraphAIClient, error) {
	adapter := util.GetEnvString("AI_ADAPTER", "openai")
	model := util.GetEnvString("AI_CHAT_MODEL", defaultChatModel)
	key := util.GetEnvString("AI_CHAT_KEY", util.GetEnv("OPENAI_API_KEY"))
	timeout := util.GetEnvDuration("AI_TIMEOUT", defaultAITimeout)
	parallel := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15))

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel: model,

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  key,
			Timeout: timeout,

			MaxConcurrentRequests: parallel,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	case "openai":
		if key == "" {
			logger.Warn("No AI_CHAT_KEY or OPENAI_API_KEY set, model calls will fail")
		}
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel: model,
			ChatURL:   util.GetEnvString("AI_CHAT_URL", gai.DefaultChatURL),
			ChatKey:   key,

			Timeout:               timeout,
			MaxConcurrentRequests: parallel,
		}), nil
	}
	return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
}

// NewCache builds the result cache selected by CACHE_BACKEND. The returned
// close func releases backend connections and is never nil.
func NewCache(ctx context.Context) (cache.ResultCache, func(), error) {
	noop := func() {}
	backend := util.GetEnvString("CACHE_BACKEND", "memory")

	switch backend {
	case "memory":
		return cache.NewMemory(), noop, nil
	case "lru":
		c, err := cache.NewLRU(int(util.GetEnvNumeric("CACHE_SIZE", 1024)))
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case "ttl":
		ttl := util.GetEnvDuration("CACHE_TTL", defaultCacheTTL)
		return cache.NewTTL(ttl, ttl), noop, nil
	case "s3":
		client, err := s3cache.NewClient(ctx, s3cache.NewClientParams{
			Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		})
		if err != nil {
			return nil, noop, err
		}
		bucket := util.GetEnv("AWS_BUCKET")
		if bucket == "" {
			return nil, noop, fmt.Errorf("AWS_BUCKET is required for the s3 cache")
		}
		return s3cache.New(client, bucket, util.GetEnvString("AWS_PREFIX", s3cache.DefaultPrefix)), noop, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		c := pgcache.New(pool)
		if err := c.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return c, pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown CACHE_BACKEND %q", backend)
}

// NewApp wires the archive, model client and cache into a pipeline.
func NewApp(aiClient ai.GraphAIClient, resultCache cache.ResultCache) (*mid.App, error) {
	structured := util.GetEnvBool("AI_STRUCTURED_OUTPUT", false)
	extractor := graph.NewExtractor(graph.NewExtractorParams{
		Client:     aiClient,
		Model:      util.GetEnv("AI_CHAT_MODEL"),
		MaxTries:   int(util.GetEnvNumeric("AI_MAX_TRIES", 1)),
		Structured: structured,
	})

	parser := graph.ToGraph
	if util.GetEnvBool("AI_REPAIR_JSON", false) {
		parser = graph.ToGraphFlexible
	}

	locator := archive.NewLocator(archive.NewLocatorParams{
		BaseURL: util.GetEnvString("ARCHIVE_BASE_URL", archive.DefaultBaseURL),
		Timeout: util.GetEnvDuration("ARCHIVE_TIMEOUT", defaultArchiveTimeout),
	})

	schema, err := json.Marshal(graph.Schema())
	if err != nil {
		return nil, fmt.Errorf("marshal graph schema: %w", err)
	}

	return &mid.App{
		Pipeline: pipeline.New(pipeline.Params{
			Source:    locator,
			Extractor: extractor,
			Cache:     resultCache,
			Parser:    parser,
		}),
		AiClient: aiClient,
		Schema:   schema,
	}, nil
}
