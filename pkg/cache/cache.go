// Package cache stores the graph computed for each book so a book is analyzed
// at most once per cache lifetime.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/litgraph/backend/pkg/graph"

	lru "github.com/hashicorp/golang-lru/v2"
	gocache "github.com/patrickmn/go-cache"
)

// ResultCache maps a book id to its validated graph.
//
// Put keeps the first graph stored for an id; later puts for the same id are
// ignored, so a cached graph is never replaced. Implementations must be safe
// for concurrent use.
type ResultCache interface {
	Get(ctx context.Context, id int64) (*graph.Graph, bool, error)
	Put(ctx context.Context, id int64, g *graph.Graph) error
}

// Memory is an unbounded in-process cache without eviction.
type Memory struct {
	mu      sync.RWMutex
	entries map[int64]*graph.Graph
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[int64]*graph.Graph)}
}

func (m *Memory) Get(_ context.Context, id int64) (*graph.Graph, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.entries[id]
	return g, ok, nil
}

func (m *Memory) Put(_ context.Context, id int64, g *graph.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		m.entries[id] = g
	}
	return nil
}

// Len reports the number of cached books.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// LRU keeps at most size graphs, evicting the least recently used.
type LRU struct {
	entries *lru.Cache[int64, *graph.Graph]
}

func NewLRU(size int) (*LRU, error) {
	c, err := lru.New[int64, *graph.Graph](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: c}, nil
}

func (l *LRU) Get(_ context.Context, id int64) (*graph.Graph, bool, error) {
	g, ok := l.entries.Get(id)
	return g, ok, nil
}

func (l *LRU) Put(_ context.Context, id int64, g *graph.Graph) error {
	l.entries.ContainsOrAdd(id, g)
	return nil
}

// TTL expires graphs ttl after they were stored.
type TTL struct {
	entries *gocache.Cache
}

// NewTTL creates a cache whose entries live for ttl. Expired entries are
// purged every cleanup interval.
func NewTTL(ttl, cleanup time.Duration) *TTL {
	return &TTL{entries: gocache.New(ttl, cleanup)}
}

func (t *TTL) Get(_ context.Context, id int64) (*graph.Graph, bool, error) {
	v, ok := t.entries.Get(key(id))
	if !ok {
		return nil, false, nil
	}
	g, ok := v.(*graph.Graph)
	return g, ok, nil
}

func (t *TTL) Put(_ context.Context, id int64, g *graph.Graph) error {
	// Add refuses existing live keys, which keeps the first graph
	_ = t.entries.Add(key(id), g, gocache.DefaultExpiration)
	return nil
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
