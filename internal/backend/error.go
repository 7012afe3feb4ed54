package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrServerNotFound    = errors.New("backend server not found")
	ErrServerNotReady    = errors.New("backend server did not become ready")
	ErrInvalidModelFiles = errors.New("model directory is missing required files")
)
