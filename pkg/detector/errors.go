package detector

import (
	"errors"
	"fmt"

	errs "github.com/vango-dev/sizewatch/internal/errors"
)

// ErrInvalidArgument is returned when ListenTo is called without
// elements, without a listener, or with a nil element.
var ErrInvalidArgument = errors.New("detector: invalid argument")

func invalidArgument(code string, cause error) error {
	wrapped := ErrInvalidArgument
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrInvalidArgument, cause)
	}
	return errs.New(code).Wrap(wrapped)
}
