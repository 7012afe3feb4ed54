package model

import (
	"time"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/config"
)

// ModelStatus is the current loading status of a language's model.
type ModelStatus string

const (
	// ModelStatusUnloaded indicates that the model is not loaded.
	ModelStatusUnloaded ModelStatus = "unloaded"

	// ModelStatusLoaded indicates that the model is loaded.
	ModelStatusLoaded ModelStatus = "loaded"
)

// Instance is a loaded session for one language.
type Instance struct {
	Session  *backend.Session
	Config   *config.ModelConfig
	LoadedAt time.Time
	ID       string
}

// NewInstance creates a loaded instance.
func NewInstance(id string, cfg *config.ModelConfig, session *backend.Session) *Instance {
	return &Instance{
		ID:       id,
		Config:   cfg,
		Session:  session,
		LoadedAt: time.Now(),
	}
}

// LanguageInfo describes one catalog entry.
type LanguageInfo struct {
	LoadedAt *time.Time  `json:"loaded_at,omitempty"`
	ID       string      `json:"id"`
	Source   string      `json:"source"`
	Backend  string      `json:"backend"`
	Status   ModelStatus `json:"status"`
}

// Synthesis is the raw result of a synthesis call.
type Synthesis struct {
	Samples    []float32
	SampleRate int
}
