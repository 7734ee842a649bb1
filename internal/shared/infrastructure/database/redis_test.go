package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedis_UnreachableHost(t *testing.T) {
	client, err := NewRedis(RedisConfig{
		Host: "redis-host-that-does-not-resolve",
		Port: "6379",
	})

	assert.Error(t, err)
	assert.Nil(t, client)
}
