package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity int

// Severities, ordered least to most severe.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic codes.
//
// E2xx are structural problems found while loading a closure.
// E3xx are discriminator reachability findings.
// E4xx are view generation findings.
const (
	CodeDuplicateSet          = "E201" // two set mappings share a name
	CodeUnknownType           = "E202" // reference to an undeclared type
	CodeUnknownStoreSet       = "E203" // fragment targets an undeclared store set
	CodeUnknownColumn         = "E204" // property or condition names an undeclared column
	CodeConditionBothValues   = "E205" // condition has both value and is-null
	CodeConditionNoValue      = "E206" // condition has neither value nor is-null
	CodeDuplicateCondition    = "E207" // two conditions on one column in a fragment
	CodeInheritanceCycle      = "E208" // entity type derives from itself
	CodeInvalidMultiplicity   = "E209" // association end multiplicity unknown
	CodeUnknownProperty       = "E210" // property mapping names an undeclared property
	CodeInvalidVersion        = "E211" // unknown mapping format version
	CodeUnknownAssociation    = "E212" // reference to an undeclared association or association role
	CodeUnknownEndSet         = "E213" // association end set names an undeclared set
	CodeDuplicateDeclaration  = "E214" // two declarations of one type, association or store set
	CodeUnreachableType       = "E301" // explicitly mapped type cannot be produced
	CodeUnreachableIsTypeOf   = "E302" // no member of an is-type-of hierarchy can be produced
	CodeAmbiguousType         = "E303" // two types can result from the same row
	CodeAbstractTypeMapped    = "E304" // abstract type mapped exactly
	CodeNoViewsGenerated      = "E401" // container with sets produced no views
	CodeSetNotMapped          = "E402" // set has no fragments and no query view
	CodeEmptyTypeMapping      = "E403" // type mapping without fragments
	CodeInvalidView           = "E404" // synthesized view failed to build
)

// Diagnostic is one finding about a mapping closure.
type Diagnostic struct {
	Severity  Severity         `json:"severity"`
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Type      string           `json:"type,omitempty"`
	Locations []SourceLocation `json:"locations,omitempty"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	if len(d.Locations) > 0 {
		parts := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			parts[i] = l.String()
		}
		fmt.Fprintf(&b, " (at %s)", strings.Join(parts, ", "))
	}
	return b.String()
}

// Diagnostics is an ordered list of findings.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (ds *Diagnostics) Add(sev Severity, code, typ, message string, locs ...SourceLocation) {
	*ds = append(*ds, Diagnostic{
		Severity:  sev,
		Code:      code,
		Message:   message,
		Type:      typ,
		Locations: locs,
	})
}

// Errorf appends an error diagnostic with a formatted message.
func (ds *Diagnostics) Errorf(code, typ string, locs []SourceLocation, format string, args ...any) {
	ds.Add(SeverityError, code, typ, fmt.Sprintf(format, args...), locs...)
}

// Warnf appends a warning diagnostic with a formatted message.
func (ds *Diagnostics) Warnf(code, typ string, locs []SourceLocation, format string, args ...any) {
	ds.Add(SeverityWarning, code, typ, fmt.Sprintf(format, args...), locs...)
}

// HasErrors reports whether any diagnostic is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns the warning diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

func (ds Diagnostics) filter(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the error diagnostics joined into one error, or nil.
func (ds Diagnostics) Err() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, d := range errs {
		joined[i] = d
	}
	return errors.Join(joined...)
}
