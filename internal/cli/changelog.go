package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gitchangelog/internal/collect"
	"gitchangelog/internal/config"
	"gitchangelog/internal/export"
	"gitchangelog/internal/logger"
)

// CreateChangelogCommand creates the root command of the changelog tool.
func (app *App) CreateChangelogCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate a changelog from git history",
		Long: `changelog reads commits from a git repository, classifies them by conventional
commit type and renders them as markdown, text, a simple list or JSON.

The JSON export can be merged, filtered, viewed and edited with the subcommands.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runExport(cmd)
		},
	}

	app.addGlobalFlags(rootCmd)

	flags := rootCmd.Flags()
	flags.String(config.KeyFormat, export.FormatMarkdown, "Output format ("+strings.Join(export.Formats, "|")+")")
	flags.String(config.KeySince, "", `Show commits since date (e.g. "2023-01-01" or "1 week ago")`)
	flags.String(config.KeyUntil, "", "Show commits until date")
	flags.String(config.KeyBranch, "HEAD", "Branch to analyze")
	flags.Int(config.KeyMaxCount, 0, "Maximum number of commits to include (0 means all)")
	flags.StringP(config.KeyOutput, "o", "", "Output file (default: stdout)")
	flags.String(config.KeyTitle, config.DefaultTitle, "Title for the changelog")
	flags.Bool(config.KeyIncludeTime, false, "Include time of day and a Unix timestamp for each commit")
	flags.String(config.KeyLinkBase, export.DefaultLinkBase, "Prefix of commit links in markdown")

	app.addViewerCommands(rootCmd)
	app.addVersionCommand(rootCmd, "changelog")

	return rootCmd
}

// runExport validates every option before the repository is opened.
func (app *App) runExport(cmd *cobra.Command) error {
	opts, err := app.settings.ExportOptions()
	if err != nil {
		return err
	}
	renderer, err := export.NewRenderer(opts.Format, opts.Render)
	if err != nil {
		return err
	}

	repo, err := app.openRepo()
	if err != nil {
		return err
	}
	commits, err := collect.New(repo).Collect(cmd.Context(), opts.Collect)
	if err != nil {
		return err
	}

	doc := export.NewDocument(opts.Title, commits, app.Now())
	out, err := renderer.Render(doc)
	if err != nil {
		return err
	}

	if opts.Output == "" {
		fmt.Fprint(app.Out, out)
		return nil
	}
	if err := export.WriteFileAtomic(opts.Output, []byte(out)); err != nil {
		return err
	}
	logger.Info("Changelog written to "+opts.Output, "commits", len(commits), "format", opts.Format)
	return nil
}
