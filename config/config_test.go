package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs/output"
	"github.com/coronin/Crisprs/search"
)

func TestDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, search.DefaultThreshold, c.Search.Threshold)
	assert.Equal(t, output.FormatTSV, c.Search.Format)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.True(t, c.Storage.MinIOSecure)
	assert.Equal(t, int64(64<<20), c.Server.CacheBytes)
	assert.Len(t, c.SearchOptions(), 4)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRISPRS_SEARCH_THRESHOLD", "2")
	t.Setenv("CRISPRS_SEARCH_BOTH_STRANDS", "true")
	t.Setenv("CRISPRS_STORAGE_S3_REGION", "eu-west-1")

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Search.Threshold)
	assert.True(t, c.Search.BothStrands)
	assert.Equal(t, "eu-west-1", c.Resolver().S3Region)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CRISPRS_SERVER_ADDR=:9999\n"), 0o644))
	t.Setenv("CRISPRS_SERVER_ADDR", "")
	require.NoError(t, os.Unsetenv("CRISPRS_SERVER_ADDR"))

	v, err := New(path)
	require.NoError(t, err)
	c, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Server.Addr)

	_, err = New(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crisprs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log-format: json\nsearch:\n  threshold: 3\n  format: jsonl\n  workers: 2\n"), 0o644))

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Search.Threshold)
	assert.Equal(t, output.FormatJSONL, c.Search.Format)
	assert.Len(t, c.SearchOptions(), 5)
	assert.NotNil(t, c.Logger(io.Discard))
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{LogLevel: "info", LogFormat: "text", Search: SearchConfig{Format: "tsv"}}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.Search.Threshold = -1
	assert.ErrorIs(t, c.Validate(), search.ErrInvalidThreshold)

	c = base()
	c.Search.Format = "xml"
	assert.ErrorIs(t, c.Validate(), output.ErrUnknownFormat)

	c = base()
	c.LogFormat = "xml"
	assert.Error(t, c.Validate())

	c = base()
	c.LogLevel = "verbose"
	assert.Error(t, c.Validate())
}

func TestValidate_NegativeCache(t *testing.T) {
	t.Setenv("CRISPRS_SERVER_CACHE_BYTES", "-1")
	v, err := New("")
	require.NoError(t, err)
	_, err = Load(v, "")
	assert.ErrorContains(t, err, "server.cache-bytes")
}
