package closurehash

import (
	"io"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// writer emits traversal text. Field values are length prefixed, which keeps
// a value containing ';' or '=' from being read as a field boundary.
type writer struct {
	w io.Writer
}

func (w writer) raw(s string) {
	// hash.Hash and bytes.Buffer never fail; trace writers are best effort.
	_, _ = io.WriteString(w.w, s)
}

// str writes name=len:value; with value NFC normalized.
func (w writer) str(name, value string) {
	normalized := norm.NFC.String(value)
	w.raw(name)
	w.raw("=")
	w.raw(strconv.Itoa(len(normalized)))
	w.raw(":")
	w.raw(normalized)
	w.raw(";")
}

func (w writer) int(name string, value int) {
	w.str(name, strconv.Itoa(value))
}

func (w writer) bool(name string, value bool) {
	w.str(name, strconv.FormatBool(value))
}

func (w writer) strs(name string, values []string) {
	w.int(name+".count", len(values))
	for _, v := range values {
		w.str(name, v)
	}
}
