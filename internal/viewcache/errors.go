package viewcache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mapview/internal/mapping"
)

// ErrorCode categorizes coordinator errors.
type ErrorCode string

const (
	// ErrCodeStaleArtifact indicates a precompiled bundle whose digests do
	// not match the live mapping.
	ErrCodeStaleArtifact ErrorCode = "STALE_ARTIFACT"

	// ErrCodeViewNotGenerated indicates no strategy produced a view.
	ErrCodeViewNotGenerated ErrorCode = "VIEW_NOT_GENERATED"

	// ErrCodeMalformedBundleReference indicates a precompiled bundle names a
	// set the live container does not map.
	ErrCodeMalformedBundleReference ErrorCode = "MALFORMED_BUNDLE_REFERENCE"

	// ErrCodeSynthesisFailed indicates container synthesis reported errors.
	ErrCodeSynthesisFailed ErrorCode = "SYNTHESIS_FAILED"

	// ErrCodeBundleLoadFailed indicates a bundle provider failed to load.
	ErrCodeBundleLoadFailed ErrorCode = "BUNDLE_LOAD_FAILED"

	// ErrCodeUnknownSet indicates a set or container name that the
	// collection does not map.
	ErrCodeUnknownSet ErrorCode = "UNKNOWN_SET"
)

// MappingError is a failure to resolve views.
type MappingError struct {
	Code      ErrorCode
	Message   string
	Container string
	Set       string

	// Diagnostics holds every finding behind the error, when there are any.
	Diagnostics mapping.Diagnostics

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	switch {
	case e.Container != "" && e.Set != "":
		fmt.Fprintf(&b, " (container=%s, set=%s)", e.Container, e.Set)
	case e.Container != "":
		fmt.Fprintf(&b, " (container=%s)", e.Container)
	case e.Set != "":
		fmt.Fprintf(&b, " (set=%s)", e.Set)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, d := range e.Diagnostics.Errors() {
		b.WriteString("\n  ")
		b.WriteString(d.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *MappingError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var me *MappingError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsStaleArtifact reports whether err is a stale bundle error.
func IsStaleArtifact(err error) bool {
	return hasCode(err, ErrCodeStaleArtifact)
}

// IsViewNotGenerated reports whether err means no view exists.
func IsViewNotGenerated(err error) bool {
	return hasCode(err, ErrCodeViewNotGenerated)
}

// IsMalformedBundleReference reports whether err is an unresolvable bundle
// reference.
func IsMalformedBundleReference(err error) bool {
	return hasCode(err, ErrCodeMalformedBundleReference)
}

// IsSynthesisFailed reports whether err carries synthesis diagnostics.
func IsSynthesisFailed(err error) bool {
	return hasCode(err, ErrCodeSynthesisFailed)
}

func newStaleArtifact(container, what string, want, got fmt.Stringer) *MappingError {
	return &MappingError{
		Code:      ErrCodeStaleArtifact,
		Message:   fmt.Sprintf("precompiled %s digest %s does not match live digest %s", what, short(want), short(got)),
		Container: container,
	}
}

func short(s fmt.Stringer) string {
	v := s.String()
	if len(v) > 12 {
		return v[:12]
	}
	return v
}
