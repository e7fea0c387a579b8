package verify

import (
	"errors"
	"fmt"
)

// Each failed check wraps exactly one of these, so callers can tell failures
// apart with errors.Is.
var (
	ErrFlush      = errors.New("exporter flush failed")
	ErrSpanCount  = errors.New("unexpected span count")
	ErrTraceID    = errors.New("span trace ID mismatch")
	ErrAttribute  = errors.New("missing or incorrect attribute")
	ErrEmptyValue = errors.New("empty attribute value")
	ErrTokenUsage = errors.New("missing token usage")
	ErrEventCount = errors.New("not enough span events")
)

func failf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
