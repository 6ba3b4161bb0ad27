package cli

import (
	"fmt"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/mapping"
)

// ViewsOptions holds flags for the views command.
type ViewsOptions struct {
	*RootOptions
	Sets     []string // sets to resolve; all sets when empty
	Type     string   // resolve a type-specific view of the single set
	Subtypes bool     // include subtypes of Type
	DB       string   // bundle store to take precompiled views from
}

// ViewRow is one resolved view.
type ViewRow struct {
	Set    string             `json:"set"`
	Type   string             `json:"type,omitempty"`
	Origin mapping.ViewOrigin `json:"origin"`
	Text   string             `json:"text"`
}

// NewViewsCommand creates the views command.
func NewViewsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "views <path>...",
		Short: "Resolve and print query views",
		Long: `Resolve the query view of every set, or of the sets named by --set.

Views come from user-defined query views, foreign-key associations,
precompiled bundles in --db whose digests still match the mapping, or view
synthesis, in that order. A stale bundle is an error, not a fallback.

With --type a type-specific view of the single --set is printed instead.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Sets, "set", "s", nil, "set to resolve (repeatable)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "entity type for a type-specific view")
	cmd.Flags().BoolVar(&opts.Subtypes, "subtypes", false, "include subtypes of --type")
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to a bundle store")

	return cmd
}

func runViews(opts *ViewsOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Type != "" && len(opts.Sets) != 1 {
		return outputCommandError(formatter, ErrCodeGeneric, "--type needs exactly one --set")
	}

	res, err := LoadMappings(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if res.Collection == nil {
		return outputValidationErrors(formatter, ValidationResult{Files: len(res.Files), Diagnostics: res.Diagnostics})
	}

	s, err := newSession(cmd, opts.RootOptions, res.Collection, opts.DB)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer s.Close()

	var rows []ViewRow
	if opts.Type != "" {
		v, ok := s.Coordinator.TryGetTypeView(opts.Sets[0], opts.Type, opts.Subtypes)
		if !ok {
			if err := formatter.Error(ErrCodeNotFound, fmt.Sprintf("no view of %s for type %s", opts.Sets[0], opts.Type), nil); err != nil {
				return WrapExitError(ExitFailure, "no type view", err)
			}
			return NewExitError(ExitFailure, "no type view")
		}
		rows = append(rows, ViewRow{Set: v.Key.Set, Type: v.Key.Type, Origin: v.Origin, Text: v.Text})
	} else {
		sets := opts.Sets
		if len(sets) == 0 {
			sets = allSets(res.Collection)
		}
		for _, set := range sets {
			v, err := s.Coordinator.GetView(set)
			if err != nil {
				return outputMappingError(formatter, err)
			}
			rows = append(rows, ViewRow{Set: v.Key.Set, Origin: v.Origin, Text: v.Text})
		}
	}

	if formatter.Verbose {
		if err := dumpMetrics(formatter, s); err != nil {
			return err
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(rows)
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Set
		if r.Type != "" {
			name += "/" + r.Type
		}
		table = append(table, []string{name, string(r.Origin), r.Text})
	}
	writeTable(formatter.Writer, table)
	return nil
}

func allSets(col *mapping.Collection) []string {
	var sets []string
	for _, cm := range col.Containers {
		for _, sm := range cm.Sets {
			sets = append(sets, cm.QualifiedName(sm.Name))
		}
	}
	return sets
}

// dumpMetrics writes the session's collectors in the Prometheus text
// format to the diagnostic writer.
func dumpMetrics(formatter *OutputFormatter, s *session) error {
	families, err := s.Registry.Gather()
	if err != nil {
		return WrapExitError(ExitCommandError, "gather metrics", err)
	}
	w := formatter.GetErrWriter()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return WrapExitError(ExitCommandError, "write metrics", err)
		}
	}
	return nil
}
