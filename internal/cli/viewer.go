package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gitchangelog/internal/export"
	"gitchangelog/internal/logger"
	"gitchangelog/internal/viewer"
	"gitchangelog/pkg/changelogtypes"
)

// filterFlags holds the commit filters shared by view and merge.
type filterFlags struct {
	types     []string
	authors   []string
	branch    string
	bug       string
	component string
	search    string
	title     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.types, "type", nil, "Only commits of these types (feat, fix, docs, ...)")
	flags.StringSliceVar(&f.authors, "author", nil, "Only commits by these authors")
	flags.StringVar(&f.branch, "branch", "", "Only commits on this branch")
	flags.StringVar(&f.bug, "bug", "", "Only commits with this bug label ("+strings.Join(changelogtypes.BugAliases(), ", ")+")")
	flags.StringVar(&f.component, "component", "", "Only commits for this component")
	flags.StringVar(&f.search, "search", "", "Only commits containing this text")
	flags.StringVar(&f.title, "title", "", "Title of the resulting document (default: title of the first file)")
}

func (f *filterFlags) filter() (viewer.Filter, error) {
	var args []string
	if len(f.types) > 0 {
		args = append(args, "type="+strings.Join(f.types, ","))
	}
	if len(f.authors) > 0 {
		args = append(args, "author="+strings.Join(f.authors, ","))
	}
	for key, value := range map[string]string{"branch": f.branch, "bug": f.bug, "component": f.component, "search": f.search} {
		if value != "" {
			args = append(args, key+"="+value)
		}
	}
	return viewer.ParseFilter(args)
}

// load merges files and applies the filters.
func (app *App) load(f *filterFlags, paths []string) (changelogtypes.Document, error) {
	filter, err := f.filter()
	if err != nil {
		return changelogtypes.Document{}, err
	}
	docs, err := viewer.Load(paths...)
	if err != nil {
		return changelogtypes.Document{}, err
	}
	v := viewer.New(docs...)
	title := f.title
	if title == "" {
		title = v.Title()
	}
	commits := v.Filter(filter)
	logger.Debug("Changelog files merged", "files", len(paths), "commits", len(v.Commits()), "matching", len(commits))
	return export.NewDocument(title, commits, app.Now()), nil
}

// addViewerCommands adds view, merge and edit.
func (app *App) addViewerCommands(rootCmd *cobra.Command) {
	var viewFlags filterFlags
	var style string
	var plain bool
	viewCmd := &cobra.Command{
		Use:   "view <file.json>...",
		Short: "Render JSON changelogs in the terminal",
		Long: `Merge one or more JSON changelog exports by commit hash, filter them and render
the result as markdown in the terminal.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := app.load(&viewFlags, args)
			if err != nil {
				return err
			}
			out, err := viewer.Render(doc, viewer.RenderOptions{Style: style, Plain: plain, LinkBase: app.settings.LinkBase})
			if err != nil {
				return err
			}
			fmt.Fprint(app.Out, out)
			return nil
		},
	}
	viewFlags.register(viewCmd)
	viewCmd.Flags().StringVar(&style, "style", "", "Glamour style name or JSON style file (dark, light, notty, ...)")
	viewCmd.Flags().BoolVar(&plain, "plain", false, "Strip colors and other terminal escapes")

	var mergeFlags filterFlags
	var output string
	mergeCmd := &cobra.Command{
		Use:   "merge <file.json>...",
		Short: "Merge JSON changelogs by commit hash",
		Long: `Merge one or more JSON changelog exports into a single JSON document. Commits
that appear in several files are kept once.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := app.load(&mergeFlags, args)
			if err != nil {
				return err
			}
			out, err := export.JSON{}.Render(doc)
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprint(app.Out, out)
				return nil
			}
			if err := export.WriteFileAtomic(output, []byte(out)); err != nil {
				return err
			}
			logger.Info("Changelog written to "+output, "commits", len(doc.Commits))
			return nil
		},
	}
	mergeFlags.register(mergeCmd)
	mergeCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	editCmd := &cobra.Command{
		Use:   "edit <file.json>",
		Short: "Edit a JSON changelog interactively",
		Long: `Open a JSON changelog in an interactive editor with commands to list, filter,
search, show, set, delete, copy and save commits.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			docs, err := viewer.Load(args[0])
			if err != nil {
				return err
			}
			session := viewer.NewSession(viewer.New(docs...), args[0], app.Out).WithClock(app.Now)
			return viewer.RunShell(session, viewer.ShellConfig{HistoryFile: historyFile()})
		},
	}

	rootCmd.AddCommand(viewCmd, mergeCmd, editCmd)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "gitchangelog")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "edit_history")
}
