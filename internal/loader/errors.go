package loader

import (
	"fmt"
	"strings"
)

// ParseError reports a document that could not be decoded. Line and Column
// locate the first problem when the decoder knows it.
type ParseError struct {
	File     string
	Line     int
	Column   int
	Messages []string
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	return fmt.Sprintf("parse %s: %s", loc, strings.Join(e.Messages, "; "))
}
