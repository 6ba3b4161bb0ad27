package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	DB        string // bundle store to save into
	Out       string // directory to write bundle files into
	Container string // restrict to one conceptual container
}

// ExportedBundle describes one exported bundle.
type ExportedBundle struct {
	Conceptual    string              `json:"conceptual_container"`
	Store         string              `json:"store_container"`
	Views         int                 `json:"views"`
	ClosureDigest closurehash.Digest  `json:"closure_digest"`
	ID            string              `json:"id,omitempty"`
	Inserted      bool                `json:"inserted,omitempty"`
	File          string              `json:"file,omitempty"`
	Diagnostics   mapping.Diagnostics `json:"diagnostics,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <path>...",
		Short: "Precompile views into bundles",
		Long: `Synthesize every view of each container and save them as a bundle.

Bundles are saved into the store named by --db, written as JSON files into
the directory named by --out, or both. Saving a bundle whose mapping is
already stored is a no-op.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the bundle store (created if missing)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "directory to write bundle files into")
	cmd.Flags().StringVarP(&opts.Container, "container", "c", "", "only export this conceptual container")

	return cmd
}

func runExport(opts *ExportOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.DB == "" && opts.Out == "" {
		return outputCommandError(formatter, ErrCodeGeneric, "nothing to do: pass --db, --out or both")
	}

	res, err := LoadMappings(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if res.Collection == nil {
		return outputValidationErrors(formatter, ValidationResult{Files: len(res.Files), Diagnostics: res.Diagnostics})
	}

	containers := res.Collection.Containers
	if opts.Container != "" {
		cm, ok := res.Collection.Container(opts.Container)
		if !ok {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("container not found: %s", opts.Container))
		}
		containers = []*mapping.ContainerMapping{cm}
	}

	s, err := newSession(cmd, opts.RootOptions, res.Collection, "")
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer s.Close()

	var st *store.Store
	if opts.DB != "" {
		if st, err = openStore(opts.DB, true); err != nil {
			return outputLoadError(formatter, err)
		}
		defer st.Close()
	}
	if opts.Out != "" {
		if err := os.MkdirAll(opts.Out, 0o755); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
		}
	}

	var exported []ExportedBundle
	for _, cm := range containers {
		b, diags, err := s.Coordinator.ExportViews(cm.ConceptualContainer)
		if err != nil {
			return outputMappingError(formatter, err)
		}
		e := ExportedBundle{
			Conceptual:    b.ConceptualContainer,
			Store:         b.StoreContainer,
			Views:         len(b.Views),
			ClosureDigest: b.ClosureDigest,
			Diagnostics:   diags,
		}
		if st != nil {
			e.ID, e.Inserted, err = st.SaveBundle(cmd.Context(), b)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
			}
			formatter.VerboseLog("Saved %s as %s (inserted=%t)", cm.ConceptualContainer, e.ID, e.Inserted)
		}
		if opts.Out != "" {
			e.File = filepath.Join(opts.Out, bundleFileName(b))
			if err := writeBundle(e.File, b); err != nil {
				return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
			}
		}
		exported = append(exported, e)
	}

	if formatter.Format == "json" {
		return formatter.Success(exported)
	}
	pass, _ := formatter.Marks()
	rows := make([][]string, 0, len(exported))
	for _, e := range exported {
		status := "written"
		switch {
		case e.ID != "" && e.Inserted:
			status = "saved " + e.ID
		case e.ID != "":
			status = "unchanged " + e.ID
		}
		rows = append(rows, []string{pass, e.Conceptual, fmt.Sprintf("%d view(s)", e.Views), status})
	}
	writeTable(formatter.Writer, rows)
	for _, e := range exported {
		if len(e.Diagnostics) > 0 {
			fmt.Fprintf(formatter.Writer, "\n%s:\n", e.Conceptual)
			writeDiagnostics(formatter.Writer, e.Diagnostics)
		}
	}
	return nil
}

func bundleFileName(b *bundle.Bundle) string {
	return b.ConceptualContainer + "." + b.StoreContainer + ".json"
}

func writeBundle(path string, b *bundle.Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	if err := bundle.Encode(f, b); err != nil {
		f.Close()
		return fmt.Errorf("write bundle file: %w", err)
	}
	return f.Close()
}
