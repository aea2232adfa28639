package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Development(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "./tmp/data.sqlite", cfg.DatabaseFilePath)
	assert.True(t, cfg.DatabaseDebug)
	assert.Equal(t, 4480, cfg.ServerPort)
}

func TestNew_Test(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 0, cfg.ServerPort)
}

func TestNew_ProductionPortOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_FILE_PATH", "/tmp/boka.sqlite")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "/tmp/boka.sqlite", cfg.DatabaseFilePath)
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 3, cfg.DatabaseMaxRetries)
	assert.GreaterOrEqual(t, cfg.ReconcilerWorkers, 1)
}
