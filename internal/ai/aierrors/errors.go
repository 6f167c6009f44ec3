// Package aierrors holds the AI provider error sentinels in a leaf
// package so provider subpackages can reference them without importing
// the parent ai package (which imports the providers for its factory).
package aierrors

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)
