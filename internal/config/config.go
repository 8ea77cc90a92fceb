// Package config loads tool settings from an optional YAML file, a
// local .env file, and REJIG_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Workspace struct {
		Root             string `yaml:"root"`
		RespectGitignore bool   `yaml:"respect_gitignore"`
	} `yaml:"workspace"`

	Apply struct {
		DryRun bool `yaml:"dry_run"`
		Verify bool `yaml:"verify"`
	} `yaml:"apply"`

	Codegen struct {
		Mode string `yaml:"mode"` // "smart" or "literal"
	} `yaml:"codegen"`

	Logging struct {
		Path        string `yaml:"path"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Workspace.Root = "."
	cfg.Codegen.Mode = "smart"
	return cfg
}

// Load reads the config file at path, layering env overrides on top.
// A missing file is not an error; the defaults apply. The workspace
// root comes back absolute.
func Load(path string) (*Config, error) {
	cfg := Default()

	// A .env alongside the tool can seed the REJIG_* variables.
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = "."
	}
	abs, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	cfg.Workspace.Root = abs

	if cfg.Codegen.Mode != "smart" && cfg.Codegen.Mode != "literal" {
		return nil, fmt.Errorf("invalid codegen mode %q (want smart or literal)", cfg.Codegen.Mode)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REJIG_ROOT"); v != "" {
		cfg.Workspace.Root = v
	}
	if v, ok := envBool("REJIG_RESPECT_GITIGNORE"); ok {
		cfg.Workspace.RespectGitignore = v
	}
	if v, ok := envBool("REJIG_DRY_RUN"); ok {
		cfg.Apply.DryRun = v
	}
	if v, ok := envBool("REJIG_VERIFY"); ok {
		cfg.Apply.Verify = v
	}
	if v := os.Getenv("REJIG_MODE"); v != "" {
		cfg.Codegen.Mode = v
	}
	if v := os.Getenv("REJIG_LOG"); v != "" {
		cfg.Logging.Path = v
	}
	if v, ok := envBool("REJIG_LOG_DEV"); ok {
		cfg.Logging.Development = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
