package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"sync"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/backend/vits"
	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/config/source"
	"github.com/ekisa-team/speechgate/internal/env"
	"github.com/ekisa-team/speechgate/internal/logger"
	"github.com/ekisa-team/speechgate/internal/model"
	"github.com/ekisa-team/speechgate/internal/service"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg         *config.Config
	vars        env.Vars
	watcher     *config.Watcher
	servers     *backend.ServerManager
	manager     *model.Manager
	translation *service.Translation

	// mu guards catalog and translation against the config watcher.
	mu      sync.Mutex
	catalog map[string]config.ModelConfig
}

// setup reads the environment, installs the default logger and loads the
// configuration. With watch set, an existing config file is watched and
// translation settings follow its changes.
func setup(flags *rootFlags, watch bool) (*app, error) {
	vars, err := env.Parse()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger.New(vars.Env,
		logger.WithLogToFile(vars.LogFile != ""),
		logger.WithLogFile(vars.LogFile),
	))

	a := &app{vars: vars}
	a.mu.Lock()
	defer a.mu.Unlock()

	if watch {
		if _, err := os.Stat(flags.configPath); err == nil {
			a.watcher, err = config.NewWatcher(flags.configPath, flags.schemaPath, a.onReload)
			if err != nil {
				return nil, err
			}
			a.cfg = a.watcher.Snapshot()
			slog.Info("Config loaded successfully", "config", flags.configPath, "watching", true)
		}
	}

	if a.cfg == nil {
		cfg, found, err := config.LoadOrDefault(flags.configPath, flags.schemaPath)
		if err != nil {
			return nil, err
		}
		if !found {
			slog.Info("No config file found, using defaults", "config", flags.configPath)
		}
		a.cfg = cfg
	}

	vars.Apply(a.cfg)
	a.catalog = a.cfg.Languages

	return a, nil
}

// initTranslation builds the translation service from the loaded config.
func (a *app) initTranslation() error {
	tr, err := service.NewTranslationFromConfig(a.cfg.Translation, &http.Client{})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.translation = tr
	a.mu.Unlock()

	slog.Info("Translation provider configured", "provider", tr.Provider())
	return nil
}

// initModels builds the session manager over the language catalog. Nothing
// is loaded until a language is first used.
func (a *app) initModels() error {
	modelsDir := a.cfg.ModelsPath("")
	if err := source.EnsureModelsDirectory(modelsDir); err != nil {
		return fmt.Errorf("models directory: %w", err)
	}

	downloader, err := source.GetDownloader(config.SourceTypeHuggingFace)
	if err != nil {
		return err
	}

	a.servers = backend.NewServerManager()
	loader := vits.NewLoader(downloader, a.servers, a.cfg.Runner, modelsDir)
	a.manager = model.NewManager(a.cfg.Languages, loader)

	slog.Info("Language catalog ready",
		"languages", a.cfg.LanguageIDs(),
		"models_dir", modelsDir,
		"runner", a.cfg.Runner.BinPath,
	)
	return nil
}

// onReload applies translation settings from a reloaded config. The
// language catalog is fixed for the life of the process.
func (a *app) onReload(cfg *config.Config, err error) {
	if err != nil {
		slog.Error("Failed to reload config", "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil && !reflect.DeepEqual(a.catalog, cfg.Languages) {
		slog.Warn("Language catalog changed, restart to apply", "languages", cfg.LanguageIDs())
	}

	if a.translation == nil {
		return
	}
	if err := a.translation.Reconfigure(cfg.Translation); err != nil {
		slog.Error("Failed to apply translation settings", "error", err)
	}
}

// close releases every loaded model, its runner and the config watcher.
func (a *app) close() {
	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			slog.Error("Failed to close models", "error", err)
		}
	}
	if a.servers != nil {
		a.servers.StopAll()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Error("Failed to close config watcher", "error", err)
		}
	}
}
