package model

import (
	"errors"
	"fmt"
)

// Error definitions for the model package.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrLoadFailure         = errors.New("model load failed")
	ErrSynthesisFailure    = errors.New("synthesis failed")
	ErrBackendNotFound     = errors.New("no loader registered for backend")
	ErrUnsupportedLanguage = fmt.Errorf("%w: unsupported language", ErrInvalidInput)
	ErrEmptyText           = fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	ErrNoKnownCharacters   = fmt.Errorf("%w: text has no characters the model can pronounce", ErrInvalidInput)
)

// UnsupportedLanguageError reports a language id missing from the catalog.
type UnsupportedLanguageError struct {
	LanguageID string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("language '%s' is not supported", e.LanguageID)
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}
