package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PICCOLO_LOG_LEVEL", "debug")
	t.Setenv("PICCOLO_CACHE", "dynamodb")
	t.Setenv("PICCOLO_DYNAMO_TABLE", "piccolo-cache")

	cfg := Default().ApplyEnv()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, CacheDynamoDB, cfg.CacheBackend)
	assert.Equal(t, "piccolo-cache", cfg.DynamoTable)
}

func TestDefaultUsesSQLiteBackend(t *testing.T) {
	assert.Equal(t, CacheSQLite, Default().CacheBackend)
}
