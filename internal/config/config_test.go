package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets variables that would leak into Load from the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CLIENT_WORKDIR", "WORKDIR"} {
		if v, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Workdir)
	assert.Equal(t, "", cfg.CommitFormat)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `workdir: /srv/repo
commit_format: |
  <type>: <summary>
author:
  name: Bot
  email: bot@example.com
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/repo", cfg.Workdir)
	assert.Equal(t, "<type>: <summary>\n", cfg.CommitFormat)
	assert.Equal(t, "Bot", cfg.Author.Name)
	assert.Equal(t, "bot@example.com", cfg.Author.Email)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "workdir: /from/file\nlog:\n  level: warn\n")

	t.Setenv("GIT_SUMMARIZER_WORKDIR", "/from/env")
	t.Setenv("GIT_SUMMARIZER_LOG_LEVEL", "error")
	t.Setenv("GIT_SUMMARIZER_COMMIT_FORMAT", "env format")
	t.Setenv("GIT_SUMMARIZER_AUTHOR_EMAIL", "env@example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Workdir)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "env format", cfg.CommitFormat)
	assert.Equal(t, "env@example.com", cfg.Author.Email)
}

func TestLoad_WorkdirFallbackEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKDIR", "/legacy")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/legacy", cfg.Workdir)

	t.Setenv("CLIENT_WORKDIR", "/client")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/client", cfg.Workdir)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid log level")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid log format")

	_, err = Load(writeConfig(t, "workdir: [unterminated\n"))
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"GIT_SUMMARIZER_WORKDIR":       "workdir",
		"GIT_SUMMARIZER_COMMIT_FORMAT": "commit_format",
		"GIT_SUMMARIZER_LOG_LEVEL":     "log.level",
		"GIT_SUMMARIZER_AUTHOR_NAME":   "author.name",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(DefaultPath())))
}
