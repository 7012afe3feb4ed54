// Package source fetches model checkpoints into the local models directory.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ekisa-team/speechgate/internal/config"
)

// Downloader fetches a model into targetDir.
type Downloader interface {
	// Download returns the local checkpoint directory and whether it was
	// already present.
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error)
}

// GetDownloader returns the downloader for a source type.
func GetDownloader(sourceType config.SourceType) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHuggingFace:
		return NewHuggingFaceDownloader(defaultHFBinary)
	default:
		return nil, fmt.Errorf("unsupported model source type: %q", sourceType)
	}
}

// EnsureModelsDirectory creates the models directory when missing.
func EnsureModelsDirectory(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	return os.MkdirAll(path, 0o755)
}
