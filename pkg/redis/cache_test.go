package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_RequiresHost(t *testing.T) {
	_, err := NewRedisCache(nil)
	assert.Error(t, err)

	_, err = NewRedisCache(&Config{Port: "6379"})
	assert.Error(t, err)
}

func TestNewRedisCache_UnreachableServer(t *testing.T) {
	cache, err := NewRedisCache(&Config{Host: "127.0.0.1", Port: "1"})

	require.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
