package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/store"
)

// BundlesOptions holds flags for the bundles command.
type BundlesOptions struct {
	*RootOptions
	DB     string // bundle store
	Delete string // bundle id to delete
}

// NewBundlesCommand creates the bundles command.
func NewBundlesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BundlesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "bundles",
		Short:         "List or delete stored bundles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundles(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the bundle store (required)")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the bundle with this id")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBundles(opts *BundlesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(opts.DB, false)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	if opts.Delete != "" {
		if err := st.DeleteBundle(cmd.Context(), opts.Delete); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("bundle not found: %s", opts.Delete))
			}
			return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{"deleted": opts.Delete})
		}
		pass, _ := formatter.Marks()
		fmt.Fprintf(formatter.Writer, "%s Deleted %s\n", pass, opts.Delete)
		return nil
	}

	summaries, err := st.ListBundles(cmd.Context())
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No bundles stored")
		return nil
	}
	rows := [][]string{{"SEQ", "ID", "CONCEPTUAL", "STORE", "VIEWS", "CLOSURE"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.FormatInt(s.Seq, 10),
			s.ID,
			s.ConceptualContainer,
			s.StoreContainer,
			strconv.Itoa(s.Views),
			s.ClosureDigest.String(),
		})
	}
	writeTable(formatter.Writer, rows)
	return nil
}
