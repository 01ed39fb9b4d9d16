package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corpeningc/maintkit/internal/git"
	"github.com/corpeningc/maintkit/internal/resolver"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	oldHome := home
	home = t.TempDir()
	t.Cleanup(func() { home = oldHome })

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{"SUPABASE_URL", "SUPABASE_SERVICE_KEY", "SUPABASE_KEY", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.BaseDir)
	assert.Equal(t, resolver.DefaultTargets, cfg.Targets)
	assert.Equal(t, 1, cfg.Jobs)
	assert.Equal(t, git.DefaultHeuristic(), cfg.Heuristic)
	assert.Equal(t, "exec_sql", cfg.Schema.RPC)
	assert.Equal(t, "api", cfg.KVAudit.Dir)
	assert.Empty(t, cfg.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "maintkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_dir: /srv/love
targets:
  - src/a.js
jobs: 3
heuristic:
  dispatch_token: dispatch(
schema:
  url: https://file.example.com
`), 0o644))

	t.Setenv("SUPABASE_URL", "https://env.example.com")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("MAINTKIT_JOBS", "5")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "/srv/love", cfg.BaseDir)
	assert.Equal(t, []string{"src/a.js"}, cfg.Targets)
	assert.Equal(t, 5, cfg.Jobs)
	assert.Equal(t, "dispatch(", cfg.Heuristic.DispatchToken)
	assert.Equal(t, "computeEtaMinutes", cfg.Heuristic.ComputationToken)
	assert.Equal(t, "https://env.example.com", cfg.Schema.URL)
	assert.Equal(t, "service-key", cfg.Schema.Key)

	rc := cfg.Resolver(true)
	assert.Equal(t, "/srv/love", rc.BaseDir)
	assert.True(t, rc.DryRun)
	assert.Equal(t, 5, rc.Jobs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{BaseDir: "", Jobs: 1}).Validate())
	assert.Error(t, (&Config{BaseDir: ".", Jobs: 0}).Validate())
	assert.NoError(t, (&Config{BaseDir: ".", Jobs: 1}).Validate())
}
