// Package pipeline turns a book id into a character graph: cache lookup,
// archive fetch, segmentation, model extraction, validation, cache store.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/litgraph/backend/pkg/cache"
	"github.com/litgraph/backend/pkg/graph"
	"github.com/litgraph/backend/pkg/logger"
	"github.com/litgraph/backend/pkg/text"

	"golang.org/x/sync/singleflight"
)

// Source returns the full text of a book.
type Source interface {
	Fetch(ctx context.Context, id int64) (string, error)
}

// Extractor returns the model's raw reply for an excerpt.
type Extractor interface {
	Extract(ctx context.Context, excerpt string) (string, error)
}

// Parser converts a raw model reply into a validated graph.
type Parser func(raw string) (*graph.Graph, error)

// Request names the book and, optionally, the segment to analyze.
// BookID is kept as text so malformed input is reported, not rejected by a decoder.
type Request struct {
	BookID    string
	PartIndex *int
	RequestID string
}

// Outcome is either a graph (Err == nil) or an error with its Status.
type Outcome struct {
	Result *graph.Graph
	Err    error
	Status Status
	Cached bool
}

func success(g *graph.Graph, cached bool) Outcome {
	return Outcome{Result: g, Status: StatusOK, Cached: cached}
}

func failure(err *Error) Outcome {
	return Outcome{Err: err, Status: StatusOf(err)}
}

// Pipeline runs the book analysis. It is safe for concurrent use.
//
// A Pipeline should be created using New.
type Pipeline struct {
	source    Source
	extractor Extractor
	cache     cache.ResultCache
	parse     Parser
	maxChars  int

	group singleflight.Group
}

// Params configures a Pipeline. Cache defaults to an in-memory cache, Parser
// to graph.ToGraph and MaxExcerptChars to text.MaxExcerptChars.
type Params struct {
	Source          Source
	Extractor       Extractor
	Cache           cache.ResultCache
	Parser          Parser
	MaxExcerptChars int
}

func New(params Params) *Pipeline {
	p := &Pipeline{
		source:    params.Source,
		extractor: params.Extractor,
		cache:     params.Cache,
		parse:     params.Parser,
		maxChars:  params.MaxExcerptChars,
	}
	if p.cache == nil {
		p.cache = cache.NewMemory()
	}
	if p.parse == nil {
		p.parse = graph.ToGraph
	}
	if p.maxChars <= 0 {
		p.maxChars = text.MaxExcerptChars
	}
	return p
}

// ParseBookID accepts a positive decimal integer, surrounding whitespace
// allowed.
func ParseBookID(raw string) (int64, *Error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, newError(KindValidation, nil, "Missing book_id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newError(KindValidation, err, "Book ID must be an integer")
	}
	// archive ids start at 1; 0 counts as absent
	if id == 0 {
		return 0, newError(KindValidation, nil, "Missing book_id")
	}
	if id < 0 {
		return 0, newError(KindValidation, nil, "Book ID must be an integer")
	}
	return id, nil
}

// AnalyzeBook returns the graph for req.BookID, serving it from the cache when
// the book was analyzed before. Concurrent first-time requests for the same
// book share one analysis.
func (p *Pipeline) AnalyzeBook(ctx context.Context, req Request) Outcome {
	id, perr := ParseBookID(req.BookID)
	if perr != nil {
		return failure(perr)
	}

	if g, ok := p.lookup(ctx, id, req.RequestID); ok {
		return success(g, true)
	}

	part := text.DefaultPartIndex
	if req.PartIndex != nil {
		part = *req.PartIndex
	}

	// concurrent callers share the first caller's part index. The shared work
	// outlives any single caller; archive and model calls carry their own timeouts.
	key := strconv.FormatInt(id, 10)
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return p.analyze(shared, id, part, req.RequestID), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Debug("Joined in-flight analysis", "book_id", id, "request_id", req.RequestID)
		}
		return res.Val.(Outcome)
	case <-ctx.Done():
		logger.Info("Request cancelled, analysis continues for other callers", "book_id", id, "request_id", req.RequestID)
		return failure(newError(KindAnalysis, ctx.Err(), "%s", ctx.Err().Error()))
	}
}

func (p *Pipeline) lookup(ctx context.Context, id int64, requestID string) (*graph.Graph, bool) {
	g, ok, err := p.cache.Get(ctx, id)
	if err != nil {
		logger.Warn("Cache lookup failed, analyzing anyway", "book_id", id, "request_id", requestID, "err", err)
		return nil, false
	}
	if ok {
		logger.Debug("Serving cached graph", "book_id", id, "request_id", requestID)
	}
	return g, ok
}

func (p *Pipeline) analyze(ctx context.Context, id int64, part int, requestID string) Outcome {
	start := time.Now()

	// a racing request may have stored the graph since the first lookup
	if g, ok := p.lookup(ctx, id, requestID); ok {
		return success(g, true)
	}

	book, err := p.source.Fetch(ctx, id)
	if err != nil {
		logger.Info("Book fetch failed", "book_id", id, "request_id", requestID, "err", err)
		return failure(newError(KindFetch, err, "Book not found or unable to fetch"))
	}

	segments := text.Split(book)
	index := text.Clamp(part, len(segments))
	excerpt := text.Excerpt(segments[index], p.maxChars)
	logger.Debug("Selected excerpt",
		"book_id", id,
		"request_id", requestID,
		"segments", len(segments),
		"part", index,
		"chars", utf8.RuneCountInString(excerpt),
	)

	raw, err := p.extractor.Extract(ctx, excerpt)
	if err != nil {
		logger.Error("Model call failed", "book_id", id, "request_id", requestID, "err", err)
		return failure(newError(KindAnalysis, err, "%s", err.Error()))
	}

	g, err := p.parse(raw)
	if err != nil {
		logger.Error("Model output rejected", "book_id", id, "request_id", requestID, "err", err)
		return failure(newError(KindAnalysis, &Error{Kind: KindMalformedGraph, Msg: err.Error(), Err: err}, "%s", err.Error()))
	}

	if err := p.cache.Put(ctx, id, g); err != nil {
		logger.Warn("Failed to cache graph", "book_id", id, "request_id", requestID, "err", err)
	}

	logger.Info("Book analyzed",
		"book_id", id,
		"request_id", requestID,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return success(g, false)
}

// IsMalformedGraph reports whether err came from rejecting model output.
func IsMalformedGraph(err error) bool {
	return errors.Is(err, graph.ErrMalformedGraph)
}
