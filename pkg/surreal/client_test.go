package surreal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":             {nil, false},
		"index clash":     {fmt.Errorf("%w: Database index `waitlist_email_unique` already contains 'user@example.com'", ErrQuery), true},
		"other index":     {errors.New("Database index `other_unique` already contains 'user@example.com'"), false},
		"index building":  {fmt.Errorf("%w: The index 'waitlist_email_unique' is currently being built", ErrQuery), false},
		"echoed email":    {errors.New("Found 'unique.person@example.com' for field `email`, but expected a string"), false},
		"record id clash": {errors.New("Database record `waitlist:abc` already exists"), false},
		"other":           {errors.New("There was a problem with the database: connection reset"), false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err, "waitlist_email_unique"))
		})
	}
}

func TestUniqueIndexName(t *testing.T) {
	assert.Equal(t, "waitlist_email_unique", UniqueIndexName("waitlist", "email"))
}

func TestNilClient_ReportsNotConnected(t *testing.T) {
	var c *Client

	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotConnected)
	assert.ErrorIs(t, c.Create(context.Background(), "waitlist", map[string]any{"email": "a@b.co"}), ErrNotConnected)
	assert.NoError(t, c.Close())
}

func TestConnect_RequiresEndpoint(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	assert.Error(t, err)
}
