package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.DocStore)
	assert.Equal(t, WritesTransaction, cfg.RelationshipWrites)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "clipshare", cfg.MinioBucket)
	assert.False(t, cfg.MinioUseSSL)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET":          "s3cret",
		"PORT":                "9000",
		"DOC_STORE":           "Memory",
		"RELATIONSHIP_WRITES": "saga",
		"TOKEN_TTL":           "1h",
		"MINIO_USE_SSL":       "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.DocStore)
	assert.Equal(t, WritesSaga, cfg.RelationshipWrites)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.MinioUseSSL)
}

func TestFromEnvRejects(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"JWT_SECRET": "x", "DOC_STORE": "sqlite"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"JWT_SECRET": "x", "RELATIONSHIP_WRITES": "weak"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "soon"}))
	assert.Error(t, err)
}
