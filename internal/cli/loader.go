package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/loader"
	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/metrics"
	"github.com/roach88/mapview/internal/store"
	"github.com/roach88/mapview/internal/synth"
	"github.com/roach88/mapview/internal/viewcache"
)

// Command error codes. Mapping diagnostics carry their own codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No mapping documents found
	ErrCodeLoadFailed  = "E004" // Document read or parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Bundle store error
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadResult contains the mapping documents loaded for one command.
//
// Collection is nil when Diagnostics holds errors.
type LoadResult struct {
	Files       []string
	Collection  *mapping.Collection
	Diagnostics mapping.Diagnostics
}

// LoadError represents a failure to find or read mapping documents.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadMappings finds and resolves the mapping documents under paths.
func LoadMappings(paths []string) (*LoadResult, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mapping path not found: %s", p), Err: err}
			}
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing mapping path: %v", err), Err: err}
		}
	}

	files, err := loader.FindDocuments(paths...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning mapping paths: %v", err), Err: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no mapping documents found in %v", paths)}
	}

	col, diags, err := loader.Load(files...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Err: err}
	}
	return &LoadResult{Files: files, Collection: col, Diagnostics: diags}, nil
}

// outputLoadError reports a load failure as a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return outputCommandError(formatter, loadErr.Code, loadErr.Message)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error())
}

// outputCommandError reports a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	if err := formatter.Error(code, message, nil); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputMappingError reports a view resolution failure (exit code 1),
// including the diagnostics behind it.
func outputMappingError(formatter *OutputFormatter, err error) error {
	var me *viewcache.MappingError
	if !errors.As(err, &me) {
		if werr := formatter.Error(ErrCodeGeneric, err.Error(), nil); werr != nil {
			err = errors.Join(err, werr)
		}
		return WrapExitError(ExitFailure, "view resolution failed", err)
	}

	if formatter.Format == "json" {
		if werr := formatter.Error(string(me.Code), me.Message, me.Diagnostics); werr != nil {
			err = errors.Join(err, werr)
		}
		return WrapExitError(ExitFailure, string(me.Code), err)
	}

	_, fail := formatter.Marks()
	fmt.Fprintf(formatter.Writer, "%s %s: %s", fail, me.Code, me.Message)
	switch {
	case me.Set != "":
		fmt.Fprintf(formatter.Writer, " (set %s)", me.Set)
	case me.Container != "":
		fmt.Fprintf(formatter.Writer, " (container %s)", me.Container)
	}
	fmt.Fprintln(formatter.Writer)
	if me.Err != nil {
		fmt.Fprintf(formatter.Writer, "  %v\n", me.Err)
	}
	writeDiagnostics(formatter.Writer, me.Diagnostics)
	return WrapExitError(ExitFailure, string(me.Code), err)
}

// newLogger returns the logger commands hand to the coordinator. Verbose
// runs log at debug level; otherwise only warnings and errors are written.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// session bundles what a view command needs: the coordinator over the
// loaded collection, its metrics registry, and the bundle store when one
// was opened.
type session struct {
	Coordinator *viewcache.Coordinator
	Registry    *prometheus.Registry
	Store       *store.Store
}

// Close releases the bundle store, if any.
func (s *session) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// newSession builds a coordinator for col. When db names a store, the
// latest bundle of every container pair in it is registered as
// precompiled views.
func newSession(cmd *cobra.Command, opts *RootOptions, col *mapping.Collection, db string) (*session, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())
	reg := prometheus.NewRegistry()
	bundles := bundle.NewRegistry()

	s := &session{Registry: reg}
	if db != "" {
		st, err := openStore(db, false)
		if err != nil {
			return nil, err
		}
		providers, err := st.Providers(cmd.Context())
		if err != nil {
			st.Close()
			return nil, &LoadError{Code: ErrCodeStoreFailed, Message: err.Error(), Err: err}
		}
		bundles.Register(providers...)
		s.Store = st
	}

	s.Coordinator = viewcache.New(col, synth.New(col.Hierarchy, synth.WithLogger(logger)),
		viewcache.WithBundles(bundles),
		viewcache.WithLogger(logger),
		viewcache.WithMetrics(metrics.New(reg)),
	)
	return s, nil
}

// openStore opens the bundle store at path. Unless create is set the file
// must already exist.
func openStore(path string, create bool) (*store.Store, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path), Err: err}
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStoreFailed, Message: err.Error(), Err: err}
	}
	return st, nil
}
