package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/speechgate/internal/model"
)

// LanguageLister lists the language catalog.
type LanguageLister interface {
	Languages() []model.LanguageInfo
}

type (
	LanguagesOutput struct {
		Body struct {
			Languages []model.LanguageInfo `json:"languages"`
		}
	}

	HealthOutput struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		}
	}
)

// LanguagesHandler handles catalog and health requests.
type LanguagesHandler struct {
	languages LanguageLister
}

// NewLanguagesHandler creates a new LanguagesHandler instance.
func NewLanguagesHandler(api huma.API, languages LanguageLister) *LanguagesHandler {
	h := &LanguagesHandler{languages: languages}

	huma.Register(api, huma.Operation{
		OperationID: "list-languages",
		Method:      http.MethodGet,
		Path:        "/languages",
		Summary:     "List supported TTS languages",
		Tags:        []string{"tts"},
	}, h.handleLanguages)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
		Tags:        []string{"health"},
	}, h.handleHealth)

	return h
}

func (h *LanguagesHandler) handleLanguages(ctx context.Context, _ *struct{}) (*LanguagesOutput, error) {
	out := &LanguagesOutput{}
	out.Body.Languages = h.languages.Languages()
	return out, nil
}

func (h *LanguagesHandler) handleHealth(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}
