package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/config"
)

const (
	defaultHFBinary   = "hf"
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 5 * time.Minute
	markerFilename    = ".speechgate-downloaded"
)

// HuggingFaceDownloader downloads a model from Hugging Face with the hf CLI.
type HuggingFaceDownloader struct {
	executor   *backend.Executor
	retryDelay time.Duration
	maxRetries int
}

// NewHuggingFaceDownloader creates a downloader backed by the hf binary.
func NewHuggingFaceDownloader(binary string) (*HuggingFaceDownloader, error) {
	executor, err := backend.NewExecutor(binary, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("hugging face cli: %w", err)
	}

	return NewHuggingFaceDownloaderWithExecutor(executor), nil
}

// NewHuggingFaceDownloaderWithExecutor creates a downloader around an
// existing executor.
func NewHuggingFaceDownloaderWithExecutor(executor *backend.Executor) *HuggingFaceDownloader {
	return &HuggingFaceDownloader{
		executor:   executor,
		retryDelay: defaultRetryDelay,
		maxRetries: defaultMaxRetries,
	}
}

// Download downloads Hugging Face model to local cache.
func (d *HuggingFaceDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	hfSource, ok := source.(config.HuggingFaceSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", source)
	}

	repo := strings.TrimSpace(hfSource.Repo)
	if repo == "" || strings.Contains(repo, "..") {
		return "", false, fmt.Errorf("invalid repo name: %q", repo)
	}

	fullPath := filepath.Join(targetDir, repo)
	markerPath := filepath.Join(fullPath, markerFilename)
	markerContent := d.markerContent(repo, hfSource.Revision)

	if !hfSource.ForceDownload {
		if _, err := os.Stat(markerPath); err == nil && !d.shouldRedownload(markerPath, markerContent) {
			slog.Info("Model already downloaded and up-to-date (marker match), skipping", "repo", repo, "path", fullPath)
			return fullPath, true, nil
		}
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := d.buildArgs(hfSource, repo, fullPath)

	var lastErr error
	for attempt := range d.maxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(d.retryDelay):
			}
		} else {
			slog.Info("Downloading model", "repo", repo, "path", fullPath)
		}

		_, stderr, err := d.executor.Execute(ctx, args, nil)
		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Model downloaded successfully", "repo", repo, "path", fullPath, "attempt", attempt+1)
			return fullPath, false, nil
		}

		lastErr = fmt.Errorf("hf download %s: %w: %s", repo, err, strings.TrimSpace(string(stderr)))
		slog.Error("Failed to download model", "repo", repo, "path", fullPath, "attempt", attempt+1, "error", err)

		if errors.Is(ctx.Err(), context.Canceled) {
			return "", false, fmt.Errorf("download canceled: %w", err)
		}
	}

	return "", false, lastErr
}

func (d *HuggingFaceDownloader) buildArgs(hfSource config.HuggingFaceSource, repo, fullPath string) []string {
	args := []string{
		"download",
		repo,
		"--local-dir", fullPath,
	}

	if hfSource.Revision != "" {
		args = append(args, "--revision", hfSource.Revision)
	}
	if hfSource.RepoType != "" {
		args = append(args, "--repo-type", hfSource.RepoType)
	}
	for _, inc := range hfSource.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range hfSource.Exclude {
		args = append(args, "--exclude", exc)
	}
	if hfSource.ForceDownload {
		args = append(args, "--force-download")
	}
	if hfSource.Token != "" {
		args = append(args, "--token", hfSource.Token)
	}
	if hfSource.MaxWorkers > 0 {
		args = append(args, "--max-workers", fmt.Sprintf("%d", hfSource.MaxWorkers))
	}

	return args
}

// markerContent generates the expected content of the marker file.
// Used to detect if we need to redownload due to config change.
func (d *HuggingFaceDownloader) markerContent(repo, revision string) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\n", repo, revision)
}

// shouldRedownload checks if the model should be redownloaded by comparing marker content.
func (d *HuggingFaceDownloader) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Model config changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected_snippet", expectedContent,
			"actual_snippet", string(content))
		return true
	}

	return false
}
