// Package cli implements the contour command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"Contour/internal/export"
	"Contour/internal/service"
	"Contour/internal/validation"

	"github.com/spf13/cobra"
)

type options struct {
	dir     string
	workers int
	verbose bool
}

// service builds the generate/parse pipeline from the global flags. Logs go
// to stderr; only errors unless --verbose.
func (o *options) service(cmd *cobra.Command) *service.Service {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return service.New(
		validation.New(validation.DefaultRules(), validation.WithLogger(logger)),
		nil,
		export.NewService(o.dir, o.workers, logger),
		logger,
	)
}

// NewRootCmd returns the contour command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "contour",
		Short: "Structural profile DXF generator",
		Long: `contour - structural profile drawings

Generates closed DXF outlines for I-beams and rectangular columns from
their dimensions, and recovers the dimensions from such drawings.

Examples:
  contour generate beam --H 200 --B 100 --tw 10 --tf 12
  contour generate column --width 300 --height 400 -o c1.dxf
  contour parse c1.dxf
  contour batch parts.xlsx --manifest manifest.xlsx
  contour interactive`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&opts.dir, "dir", "d", ".", "Output directory for generated drawings")
	root.PersistentFlags().IntVarP(&opts.workers, "workers", "w", export.DefaultWorkers, "Parallel writers for batch generation")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newGenerateCmd(opts),
		newParseCmd(opts),
		newBatchCmd(opts),
		newInteractiveCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
}
