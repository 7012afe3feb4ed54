// Package env reads process environment overrides.
package env

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/ekisa-team/speechgate/internal/config"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Vars holds the environment overrides. Tag names match the envvar package.
type Vars struct {
	Env        Environment `env:"SPEECHGATE_ENV"              envDefault:"development"`
	HTTPPort   int         `env:"SPEECHGATE_SERVER_HTTP_PORT"`
	ModelsPath string      `env:"SPEECHGATE_MODELS_PATH"`
	RunnerPath string      `env:"SPEECHGATE_RUNNER_PATH"`
	LogFile    string      `env:"SPEECHGATE_LOG_FILE"`
}

// Parse reads Vars from the process environment.
func Parse() (Vars, error) {
	vars, err := env.ParseAs[Vars]()
	if err != nil {
		return Vars{}, fmt.Errorf("parse environment: %w", err)
	}

	switch vars.Env {
	case Development, Production:
	default:
		return Vars{}, fmt.Errorf("invalid environment %q: want %q or %q", vars.Env, Development, Production)
	}

	return vars, nil
}

// Apply copies set overrides into cfg.
func (v Vars) Apply(cfg *config.Config) {
	if v.HTTPPort != 0 {
		cfg.Server.HTTPPort = v.HTTPPort
	}
	if v.ModelsPath != "" {
		cfg.Storage.ModelsDir = v.ModelsPath
	}
	if v.RunnerPath != "" {
		cfg.Runner.BinPath = v.RunnerPath
	}
}
