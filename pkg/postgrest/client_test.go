package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/mandarin-waitlist/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker circuitbreaker.CircuitBreaker) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, APIKey: "anon-key", Timeout: time.Second, Breaker: breaker})
	require.NoError(t, err)
	return client, srv
}

func TestInsert_Success(t *testing.T) {
	var gotPath, gotKey, gotAuth, gotPrefer string
	var gotBody map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}, nil)

	err := client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "/rest/v1/waitlist", gotPath)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, "return=minimal", gotPrefer)
	assert.Equal(t, "user@example.com", gotBody["email"])
}

func TestInsert_DecodesStructuredRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"waitlist_email_key\"","details":null,"hint":null}`))
	}, nil)

	err := client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "23505", apiErr.Code)
	assert.Contains(t, apiErr.Message, "duplicate key")
	assert.True(t, apiErr.Structured())
	assert.True(t, IsServerRejection(err))
}

func TestInsert_NonJSONErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}, nil)

	err := client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Code)
	assert.Empty(t, apiErr.Message)
	assert.False(t, apiErr.Structured())
	assert.False(t, IsServerRejection(err))
}

func TestInsert_TransportFailure(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	srv.Close()

	err := client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})

	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestInsert_BreakerIgnoresRejectionsButOpensOnFaults(t *testing.T) {
	status := http.StatusConflict
	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
		IsFailure:        func(err error) bool { return !IsServerRejection(err) },
	})

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate"}`))
	}, breaker)

	for i := 0; i < 3; i++ {
		_ = client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})
	}
	assert.Equal(t, circuitbreaker.Closed, client.BreakerState())

	status = http.StatusServiceUnavailable
	for i := 0; i < 2; i++ {
		_ = client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})
	}
	assert.Equal(t, circuitbreaker.Open, client.BreakerState())

	err := client.Insert(context.Background(), "waitlist", map[string]string{"email": "user@example.com"})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}

func TestPing(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "/rest/v1/", gotPath)
}

func TestNew_RejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "https://"} {
		_, err := New(Config{URL: raw})
		assert.Error(t, err, raw)
	}
}
