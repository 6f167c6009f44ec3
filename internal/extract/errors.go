package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for extraction failures.
var (
	ErrUnreachable  = errors.New("page unreachable")
	ErrFetchTimeout = errors.New("page fetch timeout")
	ErrBadStatus    = errors.New("unexpected response status")
	ErrNoContent    = errors.New("no usable text content")
	ErrInvalidURL   = errors.New("invalid url")
)

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
