package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, "http://localhost:50051", cfg.Services.Query)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, filepath.Join(dir, "dpdesktop.log"), cfg.Advanced.LogFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<DataPlatformDesktop>"))
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := DefaultConfig()
	cfg.SetEndpoint("http://dp.example:8080/")
	cfg.Client.RequestTimeout = 5
	cfg.Advanced.PresetsFile = "/etc/dp/presets.yaml"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://dp.example:8080", loaded.Services.Annotation)
	assert.Equal(t, "http://dp.example:8080", loaded.Services.IngestionStream)
	assert.Equal(t, 5*time.Second, loaded.RequestTimeout())
	assert.Equal(t, "/etc/dp/presets.yaml", loaded.Advanced.PresetsFile)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DP_ENDPOINT", "http://override:9000")
	t.Setenv("DP_LOG_LEVEL", "debug")
	t.Setenv("DP_SIMULATOR_PORT", "6000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.Services.Ingestion)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "127.0.0.1:6000", cfg.GetSimulatorAddr())
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("<DataPlatformDesktop><Client>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestDefaultWindowFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Client.DefaultWindow = 0
	assert.Equal(t, time.Hour, cfg.DefaultWindow())
	cfg.Client.DefaultWindow = 15
	assert.Equal(t, 15*time.Minute, cfg.DefaultWindow())
}

func TestParsePresets(t *testing.T) {
	doc := `
provider_tags: [beamline]
request_attributes:
  shift: [day, night]
`
	p, err := ParsePresets(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"beamline"}, p.ProviderTags)
	assert.Equal(t, []string{"day", "night"}, p.RequestAttributes["shift"])
	assert.Equal(t, DefaultPresets().RequestTags, p.RequestTags)
	assert.Equal(t, []string{"1", "2", "3", "4"}, p.ProviderAttributes["sector"])
}

func TestLoadPresetsMissingFile(t *testing.T) {
	p, err := LoadPresets(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPresets(), p)
}

func TestPresetsSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	p := DefaultPresets()
	p.RequestTags = []string{"nightly"}
	require.NoError(t, p.Save(path))

	loaded, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"nightly"}, loaded.RequestTags)
}

func TestParsePresetsInvalidYAML(t *testing.T) {
	_, err := ParsePresets(strings.NewReader("provider_tags: {"))
	assert.Error(t, err)
}
