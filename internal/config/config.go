package config

import (
	"errors"
	"sort"
	"time"

	"github.com/ekisa-team/speechgate/internal/xfs"
)

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"
)

// Translation providers.
const (
	ProviderGoogle   = "google"
	ProviderMyMemory = "mymemory"
	ProviderStub     = "stub"
)

// Config holds the main configuration for the application.
type Config struct {
	Languages   map[string]ModelConfig `json:"languages"             yaml:"languages"`
	Version     string                 `json:"version"               yaml:"version"`
	Server      ServerConfig           `json:"server,omitempty"      yaml:"server,omitempty"`
	Storage     StorageConfig          `json:"storage,omitempty"     yaml:"storage,omitempty"`
	Runner      RunnerConfig           `json:"runner,omitempty"      yaml:"runner,omitempty"`
	Translation TranslationConfig      `json:"translation,omitempty" yaml:"translation,omitempty"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	AllowedOrigins  []string      `json:"allowed_origins,omitempty"  yaml:"allowed_origins,omitempty"`
	HTTPPort        int           `json:"http_port,omitempty"        yaml:"http_port,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// StorageConfig holds configuration for caching and auto-download.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// RunnerConfig describes the external process that hosts a model checkpoint.
type RunnerConfig struct {
	BinPath      string        `json:"bin_path,omitempty"      yaml:"bin_path,omitempty"`
	Device       string        `json:"device,omitempty"        yaml:"device,omitempty"`
	BasePort     int           `json:"base_port,omitempty"     yaml:"base_port,omitempty"`
	ReadyTimeout time.Duration `json:"ready_timeout,omitempty" yaml:"ready_timeout,omitempty"`
}

// TranslationConfig selects and tunes the upstream translation provider.
type TranslationConfig struct {
	Provider          string        `json:"provider,omitempty"            yaml:"provider,omitempty"`
	Endpoint          string        `json:"endpoint,omitempty"            yaml:"endpoint,omitempty"`
	Email             string        `json:"email,omitempty"               yaml:"email,omitempty"`
	Timeout           time.Duration `json:"timeout,omitempty"             yaml:"timeout,omitempty"`
	RequestsPerMinute int           `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
}

// ModelConfig holds configuration for the model serving one language.
type ModelConfig struct {
	Source  SourceConfig `json:"source"            yaml:"source"`
	Backend string       `json:"backend,omitempty" yaml:"backend,omitempty"`
	Tags    []string     `json:"tags,omitempty"    yaml:"tags,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a model.
type ModelSource interface {
	Type() SourceType
	ID() string
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// ID returns the repository name.
func (h HuggingFaceSource) ID() string {
	return h.Repo
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, nil
	}

	return nil, errors.New("no source configured for model")
}

// SetHuggingFaceSource sets the Hugging Face source.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source.HuggingFace = &source
}

// SourceID returns the opaque identifier of the model artifact, or an empty
// string when no source is configured.
func (m *ModelConfig) SourceID() string {
	src, err := m.GetSource()
	if err != nil {
		return ""
	}

	return src.ID()
}

// LanguageIDs returns the configured language identifiers, sorted.
func (c *Config) LanguageIDs() []string {
	ids := make([]string, 0, len(c.Languages))
	for id := range c.Languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// ModelsPath returns the directory checkpoints are downloaded into.
// Precedence:
// 1. override (the SPEECHGATE_MODELS_PATH environment variable).
// 2. ModelsDir field in the config.
// 3. Default models path.
func (c *Config) ModelsPath(override string) string {
	if override != "" {
		return xfs.ExpandTilde(override)
	}
	if c.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(c.Storage.ModelsDir)
	}

	return xfs.ExpandTilde(DefaultModelsPath())
}
