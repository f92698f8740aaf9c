package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/config"
	"gitchangelog/internal/export"
	"gitchangelog/internal/logger"
	"gitchangelog/internal/release"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	dryRunStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	diffAdd     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	diffDel     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// CreateReleaseCommand creates the root command of the release tool.
func (app *App) CreateReleaseCommand() *cobra.Command {
	var flags config.ReleaseFlags
	var confirm bool

	rootCmd := &cobra.Command{
		Use:   "release [version]",
		Short: "Tag a release and record it in the changelog",
		Long: `release determines the next version (explicit or auto-incremented from the latest
tag), prepends a changelog section for the commits since the previous release, updates
manifest versions and creates the tag. Use --dry-run to preview every change.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.Version = args[0]
			}
			return app.runRelease(cmd, flags, confirm)
		},
	}

	app.addGlobalFlags(rootCmd)

	f := rootCmd.Flags()
	f.StringVar(&flags.Increment, "auto-increment", "", "Bump the latest version (major|minor|patch) [default: patch]")
	f.StringP(config.KeyMessage, "m", "", `Tag message (default: "Release <tag>")`)
	f.String(config.KeyPrefix, release.DefaultPrefix, "Tag prefix")
	f.BoolVar(&flags.Force, "force", false, "Replace an existing tag")
	f.BoolVar(&flags.Lightweight, "lightweight", false, "Create a lightweight instead of an annotated tag")
	f.BoolVar(&flags.Push, "push", false, "Push the tag to the remote")
	f.String(config.KeyRemote, release.DefaultRemote, "Remote to push to")
	f.BoolVar(&flags.DryRun, "dry-run", false, "Show what would change without touching files or tags")
	f.Bool(config.KeySinceLastTag, true, "Only include commits since the previous tag")
	f.BoolVar(&flags.NoSinceLastTag, "no-since-last-tag", false, "Include the whole history in the changelog section")
	f.String(config.KeyChangelogFile, release.DefaultChangelogFile, "Changelog file to prepend the release section to")
	f.StringArray(config.KeyManifest, []string{release.DefaultManifest}, "Manifest whose version field is updated (repeatable)")
	f.BoolVar(&flags.Commit, "commit", false, "Commit the changelog and manifests before tagging")
	f.BoolVar(&flags.Summarize, "summarize", false, "Ask the configured LLM provider for release highlights")
	f.BoolVar(&confirm, "confirm", false, "Show the dry-run preview and ask before applying it")
	f.Bool(config.KeyIncludeTime, false, "Include commit times in the section")
	f.String(config.KeyLinkBase, export.DefaultLinkBase, "Prefix of commit links in the changelog")
	rootCmd.MarkFlagsMutuallyExclusive(config.KeySinceLastTag, "no-since-last-tag")

	app.addVersionCommand(rootCmd, "release")

	return rootCmd
}

func (app *App) runRelease(cmd *cobra.Command, flags config.ReleaseFlags, confirm bool) error {
	opts, err := app.settings.ReleaseOptions(flags)
	if err != nil {
		return err
	}

	var summarizer release.Summarizer
	if opts.Summarize {
		summarizer, err = app.NewSummarizer(app.settings.Summary)
		if err != nil {
			logger.Warn("release highlights disabled", "error", err)
			summarizer = nil
		}
	}

	repo, err := app.openRepo()
	if err != nil {
		return err
	}

	sequencer := release.NewSequencer(repo, summarizer).WithClock(app.Now)

	if confirm && !opts.DryRun {
		preview := opts
		preview.DryRun = true
		result, err := sequencer.Run(cmd.Context(), preview)
		if err != nil {
			return err
		}
		fmt.Fprint(app.Out, FormatResult(result))
		ok, err := app.Confirm("Apply release " + result.Tag + "?")
		if err != nil {
			return apperr.Wrap(apperr.ErrIO, "read confirmation", err)
		}
		if !ok {
			return apperr.Newf(apperr.ErrInvalidInput, "release %s cancelled", result.Tag)
		}
	}

	result, err := sequencer.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprint(app.Out, FormatResult(result))
	return nil
}

// FormatResult renders the outcome of a release run, including dry-run previews.
func FormatResult(r *release.Result) string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString(dryRunStyle.Render("Dry run: "+r.Tag+" (nothing was changed)") + "\n")
	} else {
		b.WriteString(bannerStyle.Render("Released "+r.Tag) + "\n")
	}

	previous := r.PreviousTag
	if previous == "" {
		previous = "(none)"
	}
	field(&b, "version", r.Version)
	field(&b, "previous", previous)
	field(&b, "commits", fmt.Sprint(r.Commits))
	if len(r.Written) > 0 {
		field(&b, "written", strings.Join(r.Written, ", "))
	}
	field(&b, "steps", strings.Join(r.Steps, " → "))

	for _, p := range r.Previews {
		fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("["+p.Step+"]"), p.Path)
		for _, line := range strings.SplitAfter(p.Diff, "\n") {
			b.WriteString(colorDiffLine(line))
		}
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label+":")), value)
}

func colorDiffLine(line string) string {
	body := strings.TrimSuffix(line, "\n")
	suffix := line[len(body):]
	switch {
	case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
		return labelStyle.Render(body) + suffix
	case strings.HasPrefix(body, "+"):
		return diffAdd.Render(body) + suffix
	case strings.HasPrefix(body, "-"):
		return diffDel.Render(body) + suffix
	default:
		return line
	}
}
