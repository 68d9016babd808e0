package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(dir, "does-not-exist.toml"),
		Env:        map[string]string{"ANDEI_HOME": dir},
	})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "porondeandei.db"), cfg.Database.Path)
	require.False(t, cfg.Database.AllowRebuild)
	require.Equal(t, "pt-BR", cfg.Maps.Language)
	require.Equal(t, "BR", cfg.Maps.Region)
	require.Equal(t, 10*time.Second, cfg.Maps.Timeout)
	require.Equal(t, 30*time.Minute, cfg.Maps.CacheTTL)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/srv/andei/app.db"
allow_rebuild = true

[maps]
api_key = "test-key"
timeout = "3s"
cache_ttl = "5m"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(LoadOptions{
		ConfigPath: configPath,
		Env:        map[string]string{"ANDEI_HOME": dir},
	})
	require.NoError(t, err)

	require.Equal(t, "/srv/andei/app.db", cfg.Database.Path)
	require.True(t, cfg.Database.AllowRebuild)
	require.Equal(t, "test-key", cfg.Maps.APIKey)
	require.Equal(t, 3*time.Second, cfg.Maps.Timeout)
	require.Equal(t, 5*time.Minute, cfg.Maps.CacheTTL)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Keys absent from the file keep their defaults.
	require.Equal(t, "pt-BR", cfg.Maps.Language)
	require.Equal(t, 100, cfg.Maps.CacheMaxSize)
}

func TestLoadEnvOverridesBeatFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
[maps]
api_key = "from-file"

[logging]
level = "warn"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(LoadOptions{
		ConfigPath: configPath,
		Env: map[string]string{
			"ANDEI_HOME":             dir,
			"ANDEI_MAPS_API_KEY":     "from-env",
			"ANDEI_LOG_LEVEL":        "error",
			"ANDEI_DB_PATH":          filepath.Join(dir, "override.db"),
			"ANDEI_DB_ALLOW_REBUILD": "true",
		},
	})
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Maps.APIKey)
	require.Equal(t, "error", cfg.Logging.Level)
	require.Equal(t, filepath.Join(dir, "override.db"), cfg.Database.Path)
	require.True(t, cfg.Database.AllowRebuild)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{
			name:    "bad TOML",
			content: "[database\npath = 1",
		},
		{
			name:    "bad duration",
			content: "[maps]\ntimeout = \"soon\"\n",
		},
		{
			name:    "bad log level",
			content: "[logging]\nlevel = \"loud\"\n",
		},
		{
			name:    "bad rebuild flag",
			content: "",
			env:     map[string]string{"ANDEI_DB_ALLOW_REBUILD": "maybe"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(dir, tc.name+".toml")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.content), 0o600))

			env := map[string]string{"ANDEI_HOME": dir}
			for k, v := range tc.env {
				env[k] = v
			}
			_, err := Load(LoadOptions{ConfigPath: configPath, Env: env})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestDefaultConfigHasUsableDatabasePath(t *testing.T) {
	t.Parallel()

	cfg, err := DefaultConfig()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Database.Path)
	require.Equal(t, "porondeandei.db", filepath.Base(cfg.Database.Path))
}
