package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/config"
)

// Manager owns the language catalog and the sessions loaded from it.
// Sessions are loaded on first use and kept for the life of the manager.
type Manager struct {
	catalog  map[string]config.ModelConfig
	loaders  map[backend.BackendProvider]backend.Loader
	registry *Registry
	group    singleflight.Group
}

// NewManager creates a Manager over a copy of catalog.
func NewManager(catalog map[string]config.ModelConfig, loaders ...backend.Loader) *Manager {
	m := &Manager{
		catalog:  make(map[string]config.ModelConfig, len(catalog)),
		loaders:  make(map[backend.BackendProvider]backend.Loader, len(loaders)),
		registry: NewRegistry(),
	}
	for id, mc := range catalog {
		m.catalog[id] = mc
	}
	for _, l := range loaders {
		m.loaders[l.Provider()] = l
	}

	return m
}

// Registry returns the registry of loaded sessions.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Supported reports whether languageID is in the catalog.
func (m *Manager) Supported(languageID string) bool {
	_, ok := m.catalog[languageID]
	return ok
}

// EnsureLoaded returns the session for languageID, loading it first if
// needed. Concurrent callers for the same language share one load, which
// is not canceled when an individual caller's context is. A failed load
// caches nothing.
func (m *Manager) EnsureLoaded(ctx context.Context, languageID string) (*Instance, error) {
	mc, ok := m.catalog[languageID]
	if !ok {
		return nil, &UnsupportedLanguageError{LanguageID: languageID}
	}

	if inst, ok := m.registry.Get(languageID); ok {
		return inst, nil
	}

	v, err, shared := m.group.Do(languageID, func() (any, error) {
		if inst, ok := m.registry.Get(languageID); ok {
			return inst, nil
		}

		return m.load(context.WithoutCancel(ctx), languageID, mc)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Shared in-flight model load", "language_id", languageID)
	}

	return v.(*Instance), nil
}

func (m *Manager) load(ctx context.Context, languageID string, mc config.ModelConfig) (*Instance, error) {
	provider := backend.BackendProvider(mc.Backend)
	if provider == "" {
		provider = backend.BackendProvider(config.DefaultBackend)
	}

	loader, ok := m.loaders[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrLoadFailure, ErrBackendNotFound, provider)
	}

	slog.Info("Loading model", "language_id", languageID, "source", mc.SourceID(), "backend", provider)
	start := time.Now()

	session, err := loader.Load(ctx, languageID, &mc)
	if err != nil {
		slog.Error("Failed to load model", "language_id", languageID, "error", err)
		return nil, fmt.Errorf("%w for '%s': %w", ErrLoadFailure, languageID, err)
	}

	inst := NewInstance(languageID, &mc, session)
	m.registry.Set(inst)

	slog.Info("Model loaded", "language_id", languageID, "duration", time.Since(start))
	return inst, nil
}

// Synthesize turns text into a raw waveform using the model for languageID.
// Blank text is rejected before any model is loaded.
func (m *Manager) Synthesize(ctx context.Context, text, languageID string) (*Synthesis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	inst, err := m.EnsureLoaded(ctx, languageID)
	if err != nil {
		return nil, err
	}

	ids, err := inst.Session.Tokenizer.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(ids) == 0 {
		return nil, ErrNoKnownCharacters
	}

	wf, err := inst.Session.Model.Forward(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, err)
	}
	if wf == nil || len(wf.Samples) == 0 {
		return nil, fmt.Errorf("%w: model returned an empty waveform", ErrSynthesisFailure)
	}

	sr := wf.SampleRate
	if sr <= 0 {
		sr = backend.DefaultSampleRate
	}

	return &Synthesis{Samples: wf.Samples, SampleRate: sr}, nil
}

// Languages describes every catalog entry, sorted by id.
func (m *Manager) Languages() []LanguageInfo {
	ids := make([]string, 0, len(m.catalog))
	for id := range m.catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]LanguageInfo, 0, len(ids))
	for _, id := range ids {
		mc := m.catalog[id]
		info := LanguageInfo{
			ID:      id,
			Source:  mc.SourceID(),
			Backend: mc.Backend,
			Status:  ModelStatusUnloaded,
		}
		if inst, ok := m.registry.Get(id); ok {
			loadedAt := inst.LoadedAt
			info.Status = ModelStatusLoaded
			info.LoadedAt = &loadedAt
		}
		out = append(out, info)
	}

	return out
}

// Close closes every loaded session.
func (m *Manager) Close() error {
	var errs []error
	for _, inst := range m.registry.List() {
		if err := inst.Session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", inst.ID, err))
		}
	}

	return errors.Join(errs...)
}
