package http

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/speechgate/internal/model"
	"github.com/ekisa-team/speechgate/internal/service"
	"github.com/ekisa-team/speechgate/internal/translate"
)

// toHTTPError maps service errors to problem responses. The error string
// is always part of the response detail.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, service.ErrEmptyText):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, translate.ErrUpstream):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
