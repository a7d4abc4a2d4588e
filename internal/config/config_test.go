package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/config"
)

const cfgPath = "/home/u/.config/ferry/config.toml"

func writeConfig(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfgPath, []byte(content), 0o644))
	return fs
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := config.LoadFrom(afero.NewMemMapFs(), cfgPath)
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Verify)
	assert.Nil(t, cfg.Defaults.Jobs)
	assert.Empty(t, cfg.Values())
}

func TestLoadFrom_EmptyPath(t *testing.T) {
	cfg, err := config.LoadFrom(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Empty(t, cfg.Values())
}

func TestLoadFrom_FullConfig(t *testing.T) {
	fs := writeConfig(t, `
[defaults]
preserve = true
verify = true
interruptible = false
iouring = true
bwlimit = "100M"
jobs = 8
log_level = "debug"
`)

	cfg, err := config.LoadFrom(fs, cfgPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Preserve)
	assert.True(t, *cfg.Defaults.Preserve)
	require.NotNil(t, cfg.Defaults.Interruptible)
	assert.False(t, *cfg.Defaults.Interruptible)
	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.Equal(t, "100M", *cfg.Defaults.BWLimit)

	assert.Equal(t, map[string]any{
		"preserve":      true,
		"verify":        true,
		"interruptible": false,
		"iouring":       true,
		"bwlimit":       "100M",
		"jobs":          8,
		"log-level":     "debug",
	}, cfg.Values())
}

func TestLoadFrom_PartialConfig(t *testing.T) {
	fs := writeConfig(t, `
[defaults]
jobs = 2
`)

	cfg, err := config.LoadFrom(fs, cfgPath)
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Verify)
	assert.Equal(t, map[string]any{"jobs": 2}, cfg.Values())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax", content: "invalid [[[", wantErr: "parse"},
		{name: "unknown key", content: "[defaults]\nworkers = 4\n", wantErr: "unknown key"},
		{name: "bad jobs", content: "[defaults]\njobs = 0\n", wantErr: "jobs"},
		{name: "bad bwlimit", content: "[defaults]\nbwlimit = \"fast\"\n", wantErr: "bwlimit"},
		{name: "bad level", content: "[defaults]\nlog_level = \"loud\"\n", wantErr: "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(writeConfig(t, tt.content), cfgPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ferry"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ferry", "config.toml"), []byte("[defaults]\nverify = true\n"), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/ferry/config.toml", config.Path())
}
