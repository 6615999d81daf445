package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("ROWMAP_DRIVER", "")
	t.Setenv("ROWMAP_SCHEMA", "")
	t.Setenv("ROWMAP_LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
	assert.Equal(t, "schema.yaml", cfg.SchemaFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	url, err := cfg.GetDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, cfg.DatabaseURL, url)
}

func TestGetDatabaseURLMissing(t *testing.T) {
	_, err := Config{}.GetDatabaseURL()
	assert.Error(t, err)
}
