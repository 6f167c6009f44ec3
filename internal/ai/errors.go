package ai

import "github.com/contentradar/contentradar/internal/ai/aierrors"

// The sentinels live in aierrors so provider subpackages can share them
// without importing this package; these aliases preserve the ai.ErrX API.
var (
	ErrProviderUnavailable = aierrors.ErrProviderUnavailable
	ErrInferenceTimeout    = aierrors.ErrInferenceTimeout
	ErrInvalidResponse     = aierrors.ErrInvalidResponse
)
