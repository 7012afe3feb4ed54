package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/speechgate/internal/service"
)

type (
	TranslateRequestDTO struct {
		Text       string `json:"text,omitempty"        doc:"Text to translate"`
		TargetLang string `json:"target_lang,omitempty" doc:"Target language code" default:"en"`
		SourceLang string `json:"source_lang,omitempty" doc:"Source language code, or auto" default:"auto"`
	}

	TranslateResponseDTO struct {
		Translated string `json:"translated"`
	}
)

type (
	TranslateInput struct {
		Body TranslateRequestDTO
	}

	TranslateOutput struct {
		Body TranslateResponseDTO
	}
)

// TranslateHandler handles HTTP requests for translation.
type TranslateHandler struct {
	service *service.Translation
}

// NewTranslateHandler creates a new TranslateHandler instance.
func NewTranslateHandler(api huma.API, service *service.Translation) *TranslateHandler {
	h := &TranslateHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "translate",
		Method:        http.MethodPost,
		Path:          "/translate",
		Summary:       "Translate text",
		Tags:          []string{"translate"},
		DefaultStatus: http.StatusOK,
	}, h.handleTranslate)

	return h
}

func (h *TranslateHandler) handleTranslate(ctx context.Context, input *TranslateInput) (*TranslateOutput, error) {
	if strings.TrimSpace(input.Body.Text) == "" {
		return nil, huma.Error400BadRequest("text cannot be empty")
	}

	translated, err := h.service.Translate(ctx, input.Body.Text, input.Body.SourceLang, input.Body.TargetLang)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &TranslateOutput{Body: TranslateResponseDTO{Translated: translated}}, nil
}
