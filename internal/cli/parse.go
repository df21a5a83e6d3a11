package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"Contour/internal/section"

	"github.com/spf13/cobra"
)

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file.dxf>",
		Short: "Recover profile dimensions from a DXF drawing",
		Long: `Read the first LWPOLYLINE of a drawing and print the dimensions of
the beam (12 vertices) or column (4 vertices) it outlines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			parsed, err := opts.service(cmd).Parse(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			names, err := section.FieldNames(parsed.Type)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Type:\t%s\n", parsed.Type)
			for _, name := range names {
				fmt.Fprintf(w, "  %s:\t%.2f mm\n", name, parsed.Params[name])
			}
			return w.Flush()
		},
	}
}
