package mapping

import (
	"fmt"
	"strconv"
)

// SourceLocation is a position in a mapping document.
type SourceLocation struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the location carries a line.
func (l SourceLocation) IsValid() bool {
	return l.Line > 0
}

// String formats the location as file:line:column.
func (l SourceLocation) String() string {
	if !l.IsValid() {
		return l.File
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ViewKey identifies a cached view. A zero Type means the whole-set view;
// otherwise the key names a type-specific view of Set. Keys are compared by
// value.
type ViewKey struct {
	Set             string
	Type            string
	IncludeSubtypes bool
}

// SetKey returns the whole-set key for set.
func SetKey(set string) ViewKey {
	return ViewKey{Set: set}
}

// TypeKey returns the type-specific key for (set, typ, includeSubtypes).
func TypeKey(set, typ string, includeSubtypes bool) ViewKey {
	return ViewKey{Set: set, Type: typ, IncludeSubtypes: includeSubtypes}
}

// IsTypeSpecific reports whether k names a type-specific view.
func (k ViewKey) IsTypeSpecific() bool {
	return k.Type != ""
}

// String returns the canonical text of the key. Two keys are equal iff their
// strings are equal.
func (k ViewKey) String() string {
	if !k.IsTypeSpecific() {
		return k.Set
	}
	return k.Set + "/" + k.Type + "/" + strconv.FormatBool(k.IncludeSubtypes)
}
