package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/speechgate/internal/audio"
	"github.com/ekisa-team/speechgate/internal/service"
)

// ttsContentDisposition names the downloaded file.
const ttsContentDisposition = `attachment; filename="tts.wav"`

type (
	SynthesizeRequestDTO struct {
		Text       string `json:"text,omitempty"        doc:"Text to synthesize"`
		LanguageID string `json:"language_id,omitempty" doc:"Catalog language id" default:"mon"`
	}
)

type (
	SynthesizeInput struct {
		Body SynthesizeRequestDTO
	}

	SynthesizeOutput struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}
)

// TTSHandler handles HTTP requests for TTS.
type TTSHandler struct {
	service *service.TTS
}

// NewTTSHandler creates a new TTSHandler instance.
func NewTTSHandler(api huma.API, service *service.TTS) *TTSHandler {
	h := &TTSHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "synthesize",
		Method:        http.MethodPost,
		Path:          "/tts",
		Summary:       "Synthesize speech from text",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
		Responses: map[string]*huma.Response{
			"200": {
				Description: "16-bit mono PCM WAV",
				Content: map[string]*huma.MediaType{
					audio.ContentType: {Schema: &huma.Schema{Type: huma.TypeString, Format: "binary"}},
				},
			},
		},
	}, h.handleSynthesize)

	return h
}

// handleSynthesize handles the synthesize operation.
func (h *TTSHandler) handleSynthesize(ctx context.Context, input *SynthesizeInput) (*SynthesizeOutput, error) {
	if strings.TrimSpace(input.Body.Text) == "" {
		return nil, huma.Error400BadRequest("text cannot be empty")
	}

	speech, err := h.service.Synthesize(ctx, input.Body.Text, input.Body.LanguageID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &SynthesizeOutput{
		ContentType:        speech.ContentType,
		ContentDisposition: ttsContentDisposition,
		Body:               speech.Audio,
	}, nil
}
