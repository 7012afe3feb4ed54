// Package vits loads MMS VITS checkpoints and runs them through a
// supervised runner process.
package vits

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/config/source"
	"github.com/ekisa-team/speechgate/internal/mapsafe"
	"github.com/ekisa-team/speechgate/internal/xfs"
)

const modelConfigFile = "config.json"

// Launcher starts and stops runner processes.
type Launcher interface {
	StartServer(ctx context.Context, cfg backend.ServerConfig) (string, error)
	StopServer(name string, port int) error
}

// Loader implements backend.Loader for VITS checkpoints.
type Loader struct {
	downloader source.Downloader
	launcher   Launcher
	client     *http.Client
	runner     config.RunnerConfig
	modelsDir  string
	nextPort   atomic.Int32
}

var _ backend.Loader = (*Loader)(nil)

// NewLoader creates a loader that downloads checkpoints into modelsDir and
// serves them with the runner described by runner.
func NewLoader(downloader source.Downloader, launcher Launcher, runner config.RunnerConfig, modelsDir string) *Loader {
	l := &Loader{
		downloader: downloader,
		launcher:   launcher,
		client:     &http.Client{Timeout: 5 * time.Minute},
		runner:     runner,
		modelsDir:  modelsDir,
	}
	l.nextPort.Store(int32(runner.BasePort))

	return l
}

// Provider returns the backend provider.
func (l *Loader) Provider() backend.BackendProvider {
	return backend.BackendProviderVITS
}

// Load downloads the checkpoint for languageID, reads its tokenizer and
// starts a runner for it.
func (l *Loader) Load(ctx context.Context, languageID string, cfg *config.ModelConfig) (*backend.Session, error) {
	dir, cached, err := l.downloader.Download(ctx, cfg, l.modelsDir)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", cfg.SourceID(), err)
	}

	tokenizer, err := LoadTokenizer(dir)
	if err != nil {
		return nil, err
	}

	sampleRate, err := readSampleRate(dir)
	if err != nil {
		return nil, err
	}

	name := "vits-" + languageID
	port := int(l.nextPort.Add(1) - 1)

	baseURL, err := l.launcher.StartServer(ctx, backend.ServerConfig{
		Name:    name,
		BinPath: l.runner.BinPath,
		Args: []string{
			"--model", dir,
			"--port", strconv.Itoa(port),
			"--device", l.runner.Device,
		},
		Port:         port,
		ReadyTimeout: l.runner.ReadyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("start runner: %w", err)
	}

	slog.Info("VITS session ready",
		"language_id", languageID,
		"source", cfg.SourceID(),
		"cached", cached,
		"sampling_rate", sampleRate,
		"runner", baseURL)

	stop := func() error { return l.launcher.StopServer(name, port) }

	return &backend.Session{
		Model:     NewRunnerModel(l.client, baseURL, sampleRate, stop),
		Tokenizer: tokenizer,
	}, nil
}

// readSampleRate returns sampling_rate from the checkpoint config.json, or
// zero when it is absent.
func readSampleRate(dir string) (int, error) {
	raw, ok, err := xfs.ReadFileIfExists(filepath.Join(dir, modelConfigFile))
	if err != nil || !ok {
		return 0, err
	}

	var mc map[string]any
	if err := json.Unmarshal(raw, &mc); err != nil {
		return 0, fmt.Errorf("decode %s: %w", modelConfigFile, err)
	}

	return mapsafe.Get(mc, "sampling_rate", 0), nil
}
