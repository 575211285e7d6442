package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var markerKinds = map[error]string{
	ErrExternalTool:  "external_tool",
	ErrValidation:    "validation",
	ErrConfiguration: "configuration",
	ErrNotFound:      "not_found",
	ErrTimeout:       "timeout",
	ErrTransient:     "transient",
}

type serviceError struct {
	marker error
	detail string
	cause  error
}

func (e *serviceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.marker.Error(), e.detail, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.marker.Error(), e.detail)
}

func (e *serviceError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// ErrorKind reports the classification used by the failure handler to decide
// between automatic retry and manual review.
func (e *serviceError) ErrorKind() string {
	if kind, ok := markerKinds[e.marker]; ok {
		return kind
	}
	return "transient"
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later failure classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &serviceError{
		marker: marker,
		detail: buildDetail(stage, operation, message),
		cause:  err,
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
