package waitlist

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akeren/mandarin-waitlist/internal/models"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"github.com/akeren/mandarin-waitlist/pkg/postgrest"
)

type RESTInserter interface {
	Insert(ctx context.Context, table string, record any) error
	Ping(ctx context.Context) error
}

// remoteStore writes to a hosted PostgREST table. It is the only backend
// that forwards the store's own message, for 4xx and 5xx answers alike.
type remoteStore struct {
	client RESTInserter
	table  string
}

func NewRemoteStore(client RESTInserter, table string) WaitlistRepository {
	if strings.TrimSpace(table) == "" {
		table = models.WaitlistTableName
	}
	return &remoteStore{client: client, table: table}
}

type remoteRecord struct {
	Email string `json:"email"`
}

func (s *remoteStore) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	if s.client == nil {
		return ErrStoreNotConfigured
	}

	err := s.client.Insert(ctx, s.table, remoteRecord{Email: entry.Email})
	if err == nil {
		return nil
	}

	// Any answer with a structured body is the store speaking, whatever the
	// status. Bare 5xx and transport faults are not.
	var apiErr *postgrest.Error
	if !errors.As(err, &apiErr) || (!postgrest.IsServerRejection(err) && !apiErr.Structured()) {
		return apperrors.NewUpstreamError("waitlist REST store unavailable", err)
	}

	code := apiErr.Code
	if code == "" && apiErr.StatusCode == http.StatusConflict {
		code = apperrors.UniqueViolationCode
	}

	return &StoreError{Code: code, Message: strings.TrimSpace(apiErr.Message), Err: err}
}

func (s *remoteStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrStoreNotConfigured
	}
	return s.client.Ping(ctx)
}
