package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/mapping"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	Trace     bool   // include the traversal text
	Container string // restrict to one conceptual container
}

// ContainerDigest is the closure digest of one container mapping.
type ContainerDigest struct {
	Conceptual string             `json:"conceptual_container"`
	Store      string             `json:"store_container"`
	Version    mapping.Version    `json:"version"`
	Digest     closurehash.Digest `json:"digest"`
	Trace      string             `json:"trace,omitempty"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash <path>...",
		Short: "Print the closure digest of each container mapping",
		Long: `Print the closure digest of each container mapping.

The digest identifies the mapping a precompiled bundle was generated from.
With --trace the canonical traversal text that was hashed is printed too,
which makes it possible to diff why two digests differ.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the hashed traversal text")
	cmd.Flags().StringVarP(&opts.Container, "container", "c", "", "only hash this conceptual container")

	return cmd
}

func runHash(opts *HashOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

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

	digests := make([]ContainerDigest, 0, len(containers))
	for _, cm := range containers {
		d := ContainerDigest{Conceptual: cm.ConceptualContainer, Store: cm.StoreContainer, Version: cm.Version}
		if opts.Trace {
			var b strings.Builder
			d.Digest = closurehash.ComputeWithTrace(cm, res.Collection.Hierarchy, &b)
			d.Trace = b.String()
		} else {
			d.Digest = closurehash.Compute(cm, res.Collection.Hierarchy)
		}
		formatter.VerboseLog("Hashed %s (version %d)", cm.ConceptualContainer, cm.Version)
		digests = append(digests, d)
	}

	if formatter.Format == "json" {
		return formatter.Success(digests)
	}
	rows := make([][]string, 0, len(digests))
	for _, d := range digests {
		rows = append(rows, []string{d.Conceptual, d.Store, d.Digest.String()})
	}
	writeTable(formatter.Writer, rows)
	for _, d := range digests {
		if d.Trace == "" {
			continue
		}
		fmt.Fprintf(formatter.Writer, "\n# %s\n%s\n", d.Conceptual, d.Trace)
	}
	return nil
}
