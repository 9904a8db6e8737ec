package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, `
company_identifier: acme
plugin_options:
  job_posts:
    status: PUBLIC
    limit: 100
client:
  timeout: 30s
  page_size: 50
pipeline:
  max_concurrency: 4
output:
  kind: sqlite
  path: nodes.db
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.CompanyIdentifier)
	assert.Equal(t, "PUBLIC", cfg.PluginOptions.JobPosts["status"])
	assert.Equal(t, 100, cfg.PluginOptions.JobPosts["limit"])
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 50, cfg.Client.PageSize)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, "sqlite", cfg.Output.Kind)

	// defaults survive a partial file
	assert.Equal(t, "https://api.smartrecruiters.com/v1", cfg.Client.BaseURL)
	assert.Equal(t, "SmartRecruiters", cfg.Pipeline.TypePrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "company_identifier: [unclosed"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"SRSOURCE_COMPANY":         " acme ",
		"SRSOURCE_TOKEN":           "tok",
		"SRSOURCE_PAGE_SIZE":       "100",
		"SRSOURCE_MAX_CONCURRENCY": "8",
		"SRSOURCE_TIMEOUT":         "5s",
		"SRSOURCE_OUTPUT":          "sqlite",
		"SRSOURCE_OUTPUT_PATH":     "/tmp/nodes.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.CompanyIdentifier)
	assert.Equal(t, "tok", cfg.Client.Token)
	assert.Equal(t, 100, cfg.Client.PageSize)
	assert.Equal(t, 8, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "sqlite", cfg.Output.Kind)
	assert.Equal(t, "/tmp/nodes.db", cfg.Output.Path)
}

func TestApplyEnvBadNumbers(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"SRSOURCE_PAGE_SIZE": "lots",
		"SRSOURCE_TIMEOUT":   "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SRSOURCE_PAGE_SIZE")
	assert.Contains(t, err.Error(), "SRSOURCE_TIMEOUT")
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.CompanyIdentifier = "  acme "
	cfg.Client.BaseURL = "https://api.smartrecruiters.com/v1/"
	cfg.Client.PageSize = 100

	out, v := NormalizeAndValidate(cfg)
	require.True(t, v.OK(), v.Errors)
	require.NoError(t, v.Err())
	assert.Equal(t, "acme", out.CompanyIdentifier)
	assert.Equal(t, "https://api.smartrecruiters.com/v1", out.Client.BaseURL)
	assert.Empty(t, v.Warnings)
}

func TestValidationErrors(t *testing.T) {
	cfg := Default()
	cfg.Client.PageSize = 500
	cfg.Output.Kind = "xml"
	cfg.Logging.Level = "loud"

	_, v := NormalizeAndValidate(cfg)
	require.False(t, v.OK())
	require.Error(t, v.Err())

	joined := v.Err().Error()
	assert.Contains(t, joined, "CompanyIdentifier")
	assert.Contains(t, joined, "Client.PageSize")
	assert.Contains(t, joined, "Output.Kind")
	assert.Contains(t, joined, "Logging.Level")
}

func TestValidationWarnings(t *testing.T) {
	cfg := Default()
	cfg.CompanyIdentifier = "acme"
	cfg.PluginOptions.JobPosts = map[string]any{"department": "1"}
	cfg.Output.Prune = true

	_, v := NormalizeAndValidate(cfg)
	require.True(t, v.OK(), v.Errors)
	assert.Len(t, v.Warnings, 3)
}

func TestSqliteNeedsFile(t *testing.T) {
	cfg := Default()
	cfg.CompanyIdentifier = "acme"
	cfg.Output.Kind = "sqlite"

	_, v := NormalizeAndValidate(cfg)
	assert.False(t, v.OK())
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sub", "config.yml")

	cfg := Default()
	cfg.CompanyIdentifier = "acme"
	cfg.Client.Timeout = 10 * time.Second
	require.NoError(t, SaveAtomic(p, cfg))

	cfg.CompanyIdentifier = "globex"
	require.NoError(t, SaveAtomic(p, cfg))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "globex", got.CompanyIdentifier)
	assert.Equal(t, 10*time.Second, got.Client.Timeout)

	_, err = os.Stat(p + ".bak")
	assert.NoError(t, err)
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.Error(t, SaveAtomic(p, Default()))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}
