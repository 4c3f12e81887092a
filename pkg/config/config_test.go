package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "gpt-4o", cfg.TokenModel)
	assert.Empty(t, cfg.OutputDir)
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "output_dir: /tmp/exports\ndebounce: 250ms\nignore_names: [target, dist]\ntoken_model: gpt-4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/exports", cfg.OutputDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{"target", "dist"}, cfg.IgnoreNames)
	assert.Equal(t, "gpt-4", cfg.TokenModel)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadNormalizesZeroDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce: 0s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
}
