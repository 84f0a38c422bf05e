package surreal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

var (
	ErrNotConnected = errors.New("surreal: not connected")
	ErrQuery        = errors.New("surreal: query failed")
)

type Config struct {
	// Endpoint is a ws(s):// or http(s):// URL, e.g. ws://localhost:8000
	Endpoint  string
	Username  string
	Password  string
	Namespace string
	Database  string
}

type Client struct {
	db *surrealdb.DB
}

// Connect dials, signs in and selects the namespace/database.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("surreal: endpoint is required")
	}

	db, err := surrealdb.FromEndpointURLString(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("surreal: connect %s: %w", cfg.Endpoint, err)
	}

	if cfg.Username != "" {
		if _, err := db.SignIn(ctx, &surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("surreal: signin: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surreal: use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}

	return &Client{db: db}, nil
}

// UniqueIndexName is the name EnsureUniqueIndex gives the index on table.field.
func UniqueIndexName(table, field string) string {
	return table + "_" + field + "_unique"
}

// EnsureUniqueIndex defines a UNIQUE index on table.field if it is missing.
func (c *Client) EnsureUniqueIndex(ctx context.Context, table, field string) error {
	query := fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s ON TABLE %s FIELDS %s UNIQUE",
		UniqueIndexName(table, field), table, field)
	return c.exec(ctx, query, nil)
}

// Create inserts one record into table.
func (c *Client) Create(ctx context.Context, table string, content map[string]any) error {
	return c.exec(ctx, "CREATE type::table($tb) CONTENT $content", map[string]any{
		"tb":      table,
		"content": content,
	})
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return ErrNotConnected
	}
	if _, err := c.db.Version(ctx); err != nil {
		return fmt.Errorf("surreal: ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close(context.Background())
}

func (c *Client) exec(ctx context.Context, query string, vars map[string]any) error {
	if c == nil || c.db == nil {
		return ErrNotConnected
	}

	results, err := surrealdb.Query[any](ctx, c.db, query, vars)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil
	}

	for _, r := range *results {
		if r.Status == "OK" {
			continue
		}
		if r.Error != nil {
			return fmt.Errorf("%w: %s", ErrQuery, r.Error.Message)
		}
		return fmt.Errorf("%w: status %s", ErrQuery, r.Status)
	}
	return nil
}

// IsUniqueViolation reports whether err is SurrealDB refusing a write
// because the UNIQUE index named index already holds the value. Only the
// engine's own rejection is matched; other failures that mention the index
// are not duplicates.
func IsUniqueViolation(err error, index string) bool {
	if err == nil || index == "" {
		return false
	}
	return strings.Contains(err.Error(), "Database index `"+index+"` already contains ")
}
