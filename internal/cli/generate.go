package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"Contour/internal/report"
	"Contour/internal/section"
	"Contour/internal/service"

	"github.com/spf13/cobra"
)

type generateFlags struct {
	output string
	report string
}

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a profile drawing from its dimensions",
	}
	cmd.AddCommand(newGenerateBeamCmd(opts), newGenerateColumnCmd(opts))
	return cmd
}

func newGenerateBeamCmd(opts *options) *cobra.Command {
	var (
		flags generateFlags
		p     section.BeamParams
	)
	cmd := &cobra.Command{
		Use:   "beam",
		Short: "Generate an I-beam outline",
		Long: `Generate the 12-vertex outline of a symmetric I-beam.

All dimensions are in millimetres.

Examples:
  contour generate beam --H 200 --B 100 --tw 10 --tf 12
  contour generate beam --H 300 --B 150 --tw 7 --tf 10.7 -o ipe300.dxf --report ipe300.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, flags, section.Beam, map[string]any{
				"H": p.H, "B": p.B, "tw": p.Tw, "tf": p.Tf,
			})
		},
	}
	cmd.Flags().Float64Var(&p.H, "H", 0, "Total depth (H) [required]")
	cmd.Flags().Float64Var(&p.B, "B", 0, "Flange width (B) [required]")
	cmd.Flags().Float64Var(&p.Tw, "tw", 0, "Web thickness (tw) [required]")
	cmd.Flags().Float64Var(&p.Tf, "tf", 0, "Flange thickness (tf) [required]")
	for _, name := range []string{"H", "B", "tw", "tf"} {
		cmd.MarkFlagRequired(name)
	}
	addOutputFlags(cmd, &flags)
	return cmd
}

func newGenerateColumnCmd(opts *options) *cobra.Command {
	var (
		flags generateFlags
		p     section.ColumnParams
	)
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Generate a rectangular column outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, flags, section.Column, map[string]any{
				"width": p.Width, "height": p.Height,
			})
		},
	}
	cmd.Flags().Float64Var(&p.Width, "width", 0, "Width [required]")
	cmd.Flags().Float64Var(&p.Height, "height", 0, "Height [required]")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")
	addOutputFlags(cmd, &flags)
	return cmd
}

func addOutputFlags(cmd *cobra.Command, flags *generateFlags) {
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Drawing file name (default: timestamped)")
	cmd.Flags().StringVar(&flags.report, "report", "", "Also write a PDF drawing sheet to this path")
}

func runGenerate(cmd *cobra.Command, opts *options, flags generateFlags, kind section.Kind, params map[string]any) error {
	svc := opts.service(cmd)
	gen, err := svc.Generate(cmd.Context(), service.Request{
		ComponentType: kind.String(),
		Params:        params,
		Name:          flags.output,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "DXF generated: %s\n", gen.Path)
	printWarnings(out, gen.Warnings)
	printProperties(cmd, gen.Profile)

	if flags.report != "" {
		if err := writeReport(flags.report, &gen.Rendered); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written: %s\n", flags.report)
	}
	return nil
}

func printProperties(cmd *cobra.Command, pts section.Profile) {
	props := section.CalculateProperties(pts)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Area:\t%.2f mm²\n", props.Area)
	fmt.Fprintf(w, "  Centroid:\t(%.2f, %.2f) mm\n", props.CentroidX, props.CentroidY)
	fmt.Fprintf(w, "  Ixx:\t%.4g mm⁴\n", props.Ixx)
	fmt.Fprintf(w, "  Iyy:\t%.4g mm⁴\n", props.Iyy)
	w.Flush()
}

func writeReport(path string, r *service.Rendered) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = report.Write(f, report.Sheet{
		Kind:     r.Kind,
		Params:   r.Params,
		Profile:  r.Profile,
		Warnings: r.Warnings,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
