package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"Contour/internal/importer"
	"Contour/internal/service"

	"github.com/spf13/cobra"
)

func newBatchCmd(opts *options) *cobra.Command {
	var manifest string
	cmd := &cobra.Command{
		Use:   "batch <parts.xlsx>",
		Short: "Generate every profile listed in a spreadsheet",
		Long: `Generate one drawing per row of the first sheet of an xlsx workbook.

Row 1 names the columns: component_type, the dimension columns
(H, B, tw, tf for beams; width, height for columns) and an optional
name. Rows fail independently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			reqs, err := importer.ReadRequests(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			results := opts.service(cmd).Batch(cmd.Context(), reqs)
			failed := printBatch(cmd.OutOrStdout(), results)

			if manifest != "" {
				if err := writeManifest(manifest, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest written: %s\n", manifest)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Write an xlsx manifest of the results")
	return cmd
}

// printBatch tabulates results and returns the number of failures.
func printBatch(out io.Writer, results []service.BatchResult) int {
	failed := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  #\tType\tStatus\tDetail\n")
	for _, r := range results {
		status, det := "ok", r.Path
		if r.Err != nil {
			failed++
			status, det = "failed", r.Err.Error()
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", r.Index+1, r.Request.ComponentType, status, det)
	}
	w.Flush()
	for _, r := range results {
		for _, warn := range r.Warnings {
			fmt.Fprintf(out, "Warning (#%d): %s\n", r.Index+1, warn)
		}
	}
	fmt.Fprintf(out, "%d generated, %d failed\n", len(results)-failed, failed)
	return failed
}

func writeManifest(path string, results []service.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = importer.WriteManifest(f, results)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
