package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/version"
)

// addVersionCommand adds the version command
func (app *App) addVersionCommand(rootCmd *cobra.Command, tool string) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  fmt.Sprintf("Display the version of %s with build information.", tool),
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			build := version.Current(tool)
			detailed, _ := cmd.Flags().GetBool("detailed")
			asJSON, _ := cmd.Flags().GetBool("json")
			switch {
			case asJSON:
				data, err := json.MarshalIndent(build, "", "  ")
				if err != nil {
					return apperr.Wrap(apperr.ErrIO, "encode version", err)
				}
				fmt.Fprintln(app.Out, string(data))
			case detailed:
				fmt.Fprintln(app.Out, build.Detailed())
			default:
				fmt.Fprintln(app.Out, build.Short())
			}
			return nil
		},
	}

	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("detailed", "json")
	rootCmd.AddCommand(versionCmd)
}
