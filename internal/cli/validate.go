package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/viewcache"
)

// ValidationResult represents the result of validation.
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	Files       int                 `json:"files"`
	Containers  int                 `json:"containers"`
	Diagnostics mapping.Diagnostics `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate mapping documents",
		Long: `Validate mapping documents without writing anything.

Checks document structure (names, columns, conditions, inheritance), then
runs view synthesis for every container so that unreachable and ambiguous
types are reported too. Every problem is reported, not only the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	res, err := LoadMappings(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d mapping document(s)", len(res.Files))

	result := ValidationResult{Files: len(res.Files), Diagnostics: res.Diagnostics}
	if res.Collection != nil {
		diags, err := synthesizeAll(cmd, opts, res.Collection)
		if err != nil {
			return outputLoadError(formatter, err)
		}
		result.Containers = len(res.Collection.Containers)
		result.Diagnostics = append(result.Diagnostics, diags...)
	}

	result.Valid = !result.Diagnostics.HasErrors()
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// synthesizeAll runs view synthesis over every container and returns the
// combined diagnostics. Synthesis failures are expected here; only other
// errors are returned.
func synthesizeAll(cmd *cobra.Command, opts *RootOptions, col *mapping.Collection) (mapping.Diagnostics, error) {
	s, err := newSession(cmd, opts, col, "")
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var all mapping.Diagnostics
	for _, cm := range col.Containers {
		_, diags, err := s.Coordinator.ExportViews(cm.ConceptualContainer)
		all = append(all, diags...)
		if err != nil && !isSynthesisFailure(err) {
			return nil, err
		}
	}
	return all, nil
}

func isSynthesisFailure(err error) bool {
	var me *viewcache.MappingError
	return errors.As(err, &me) && me.Code == viewcache.ErrCodeSynthesisFailed
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	pass, _ := formatter.Marks()
	fmt.Fprintf(formatter.Writer, "%s All mappings valid (%d document(s), %d container(s))\n",
		pass, result.Files, result.Containers)
	if warnings := result.Diagnostics.Warnings(); len(warnings) > 0 {
		fmt.Fprintln(formatter.Writer)
		writeDiagnostics(formatter.Writer, warnings)
	}
	return nil
}

// outputValidationErrors outputs every diagnostic of a failed validation.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Diagnostics.Errors()
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	_, fail := formatter.Marks()
	fmt.Fprintf(formatter.Writer, "%s Validation failed with %d error(s)\n\n", fail, len(errs))
	writeDiagnostics(formatter.Writer, result.Diagnostics)
	return exitErr
}
