// Package pgx persists cached graphs in PostgreSQL.
package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/litgraph/backend/pkg/graph"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS book_graphs (
	book_id    BIGINT PRIMARY KEY,
	graph      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Cache is a cache.ResultCache backed by the book_graphs table.
type Cache struct {
	db dbConn
}

func New(pool *pgxpool.Pool) *Cache {
	return &Cache{db: pool}
}

// EnsureSchema creates the book_graphs table when it does not exist.
func (c *Cache) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create book_graphs: %w", err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, id int64) (*graph.Graph, bool, error) {
	var raw []byte
	err := c.db.QueryRow(ctx, `SELECT graph FROM book_graphs WHERE book_id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load graph %d: %w", id, err)
	}

	var g graph.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false, fmt.Errorf("decode graph %d: %w", id, err)
	}
	return &g, true, nil
}

// Put stores g unless a graph for id already exists.
func (c *Cache) Put(ctx context.Context, id int64, g *graph.Graph) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode graph %d: %w", id, err)
	}
	_, err = c.db.Exec(ctx,
		`INSERT INTO book_graphs (book_id, graph) VALUES ($1, $2) ON CONFLICT (book_id) DO NOTHING`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("store graph %d: %w", id, err)
	}
	return nil
}
