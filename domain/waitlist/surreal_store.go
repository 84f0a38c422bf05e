package waitlist

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/models"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"github.com/akeren/mandarin-waitlist/pkg/surreal"
)

type DocumentCreator interface {
	Create(ctx context.Context, table string, content map[string]any) error
	Ping(ctx context.Context) error
}

type surrealStore struct {
	client DocumentCreator
	table  string
	index  string
	now    func() time.Time
}

func NewSurrealStore(client DocumentCreator, table string) WaitlistRepository {
	if strings.TrimSpace(table) == "" {
		table = models.WaitlistTableName
	}
	return &surrealStore{
		client: client,
		table:  table,
		index:  surreal.UniqueIndexName(table, "email"),
		now:    time.Now,
	}
}

func (s *surrealStore) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	if s.client == nil {
		return ErrStoreNotConfigured
	}

	err := s.client.Create(ctx, s.table, map[string]any{
		"email":      entry.Email,
		"created_at": s.now().UTC(),
	})
	if err == nil {
		return nil
	}

	if surreal.IsUniqueViolation(err, s.index) {
		return newUniqueViolation(err)
	}
	return apperrors.NewUpstreamError("waitlist SurrealDB store unavailable", err)
}

func (s *surrealStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrStoreNotConfigured
	}
	return s.client.Ping(ctx)
}
