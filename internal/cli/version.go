package cli

import (
	"fmt"

	"Contour/internal/version"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of contour",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "contour v%s\n", version.Version)
			fmt.Fprintf(out, "commit %s, built %s\n", version.GitCommit, version.BuildTime)
		},
	}
}
