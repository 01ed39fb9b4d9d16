package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpeningc/maintkit/internal/git"
	"github.com/corpeningc/maintkit/internal/kvaudit"
	"github.com/corpeningc/maintkit/internal/resolver"
	"github.com/corpeningc/maintkit/internal/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "MAINTKIT"
	configFileName = "maintkit"
)

var home, _ = os.UserHomeDir()

type KVAudit struct {
	Dir      string   `mapstructure:"dir"`
	Patterns []string `mapstructure:"patterns"`
}

type Config struct {
	Path      string          `mapstructure:"-"`
	BaseDir   string          `mapstructure:"base_dir"`
	Targets   []string        `mapstructure:"targets"`
	Jobs      int             `mapstructure:"jobs"`
	Heuristic git.Heuristic   `mapstructure:"heuristic"`
	Schema    schema.Settings `mapstructure:"schema"`
	KVAudit   KVAudit         `mapstructure:"kvaudit"`
}

func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("base_dir must not be empty")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	return nil
}

// Resolver builds the batch configuration for the resolve command.
func (c *Config) Resolver(dryRun bool) resolver.Config {
	return resolver.Config{
		BaseDir:     c.BaseDir,
		TargetPaths: c.Targets,
		Jobs:        c.Jobs,
		DryRun:      dryRun,
		Heuristic:   c.Heuristic,
	}
}

func SetDefaults(v *viper.Viper) {
	h := git.DefaultHeuristic()

	v.SetDefault("base_dir", ".")
	v.SetDefault("targets", resolver.DefaultTargets)
	v.SetDefault("jobs", 1)
	v.SetDefault("heuristic.dispatch_token", h.DispatchToken)
	v.SetDefault("heuristic.computation_token", h.ComputationToken)
	v.SetDefault("heuristic.diagnostic_call", h.DiagnosticCall)
	v.SetDefault("heuristic.stub_marker", h.StubMarker)
	v.SetDefault("schema.rpc", schema.DefaultRPC)
	v.SetDefault("schema.file", "supabase/migrations/20251105_initial_schema.sql")
	v.SetDefault("kvaudit.dir", "api")
	v.SetDefault("kvaudit.patterns", kvaudit.DefaultPatterns)
}

// Load reads .env, the config file and MAINTKIT_* variables into a Config. An explicit
// path must exist; otherwise a missing config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", configFileName))
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("schema.url", EnvPrefix+"_SCHEMA_URL", "SUPABASE_URL")
	_ = v.BindEnv("schema.key", EnvPrefix+"_SCHEMA_KEY", "SUPABASE_SERVICE_KEY", "SUPABASE_KEY")
	_ = v.BindEnv("schema.dsn", EnvPrefix+"_SCHEMA_DSN", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
