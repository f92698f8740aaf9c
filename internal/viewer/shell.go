package viewer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/abiosoft/ishell/v2"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/export"
	"gitchangelog/internal/logger"
	"gitchangelog/pkg/changelogtypes"
)

// Session is the state behind the interactive editor. Every command is a plain method so
// the shell is a thin adapter over it.
type Session struct {
	viewer   *Viewer
	path     string
	filter   Filter
	linkBase string
	now      func() time.Time
	out      io.Writer
}

// NewSession edits v, saving to path by default.
func NewSession(v *Viewer, path string, out io.Writer) *Session {
	return &Session{viewer: v, path: path, now: time.Now, out: out, linkBase: export.DefaultLinkBase}
}

// WithClock replaces the clock used to stamp saved documents.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// Viewer returns the edited set.
func (s *Session) Viewer() *Viewer { return s.viewer }

type command struct {
	name  string
	usage string
	help  string
	run   func(s *Session, args []string) error
}

var commands = []command{
	{"list", "list", "list commits matching the active filter", (*Session).list},
	{"filter", "filter [type=..] [author=..] [branch=..] [bug=..] [component=..] | filter clear", "set or clear the active filter", (*Session).setFilter},
	{"search", "search <text>", "list commits containing text", (*Session).search},
	{"show", "show <hash>", "show one commit", (*Session).show},
	{"set", "set <hash> <field> <value>", "edit a field (" + strings.Join(Fields, ", ") + ")", (*Session).set},
	{"delete", "delete <hash>", "remove a commit", (*Session).delete},
	{"stats", "stats", "count commits by type and author", (*Session).stats},
	{"copy", "copy", "copy the filtered set as markdown to the clipboard", (*Session).copy},
	{"save", "save [path]", "write the edited set as JSON", (*Session).save},
}

// Exec runs one command line. Unknown commands are usage errors.
func (s *Session) Exec(name string, args []string) error {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(s, args)
		}
	}
	return apperr.Newf(apperr.ErrUsage, "unknown command %q", name)
}

func (s *Session) visible() []changelogtypes.Commit {
	return s.viewer.Filter(s.filter)
}

func (s *Session) printCommits(commits []changelogtypes.Commit) {
	for _, c := range commits {
		fmt.Fprintln(s.out, Summary(c))
	}
	fmt.Fprintf(s.out, "%d commit(s)\n", len(commits))
}

func (s *Session) list(_ []string) error {
	s.printCommits(s.visible())
	return nil
}

func (s *Session) setFilter(args []string) error {
	if len(args) == 0 {
		if s.filter.Empty() {
			fmt.Fprintln(s.out, "no filter")
		} else {
			fmt.Fprintf(s.out, "%+v\n", s.filter)
		}
		return nil
	}
	if len(args) == 1 && args[0] == "clear" {
		s.filter = Filter{}
		return nil
	}
	f, err := ParseFilter(args)
	if err != nil {
		return err
	}
	s.filter = f
	s.printCommits(s.visible())
	return nil
}

// ParseFilter builds a Filter from key=value arguments. type and author may repeat or
// hold comma-separated lists.
func ParseFilter(args []string) (Filter, error) {
	var f Filter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return f, apperr.Newf(apperr.ErrUsage, "expected key=value, got %q", arg)
		}
		switch strings.ToLower(key) {
		case "type":
			for _, name := range strings.Split(value, ",") {
				category, ok := changelogtypes.ParseCategory(name)
				if !ok {
					return f, apperr.Newf(apperr.ErrInvalidInput, "unknown type %q", name)
				}
				f.Types = append(f.Types, category)
			}
		case "author":
			f.Authors = append(f.Authors, strings.Split(value, ",")...)
		case "branch":
			f.Branch = value
		case "bug":
			label, ok := changelogtypes.ParseBugLabel(value)
			if !ok {
				return f, apperr.Newf(apperr.ErrInvalidInput, "unknown bug label %q", value)
			}
			f.Bug = label
		case "component":
			f.Component = value
		case "search":
			f.Query = value
		default:
			return f, apperr.Newf(apperr.ErrUsage, "unknown filter key %q", key)
		}
	}
	return f, nil
}

func (s *Session) search(args []string) error {
	if len(args) == 0 {
		return apperr.New(apperr.ErrUsage, "usage: search <text>")
	}
	s.printCommits(s.viewer.Search(strings.Join(args, " ")))
	return nil
}

func (s *Session) show(args []string) error {
	if len(args) != 1 {
		return apperr.New(apperr.ErrUsage, "usage: show <hash>")
	}
	c, err := s.viewer.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, Detail(c))
	return nil
}

func (s *Session) set(args []string) error {
	if len(args) < 3 {
		return apperr.New(apperr.ErrUsage, "usage: set <hash> <field> <value>")
	}
	if err := s.viewer.Edit(args[0], args[1], strings.Join(args[2:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "updated %s of %s\n", args[1], args[0])
	return nil
}

func (s *Session) delete(args []string) error {
	if len(args) != 1 {
		return apperr.New(apperr.ErrUsage, "usage: delete <hash>")
	}
	if err := s.viewer.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "deleted %s\n", args[0])
	return nil
}

func (s *Session) stats(_ []string) error {
	fmt.Fprint(s.out, FormatStats(ComputeStats(s.visible())))
	return nil
}

func (s *Session) copy(_ []string) error {
	doc := export.NewDocument(s.viewer.Title(), s.visible(), s.now())
	md, err := Markdown(doc, s.linkBase)
	if err != nil {
		return err
	}
	if err := copyToClipboard(md); err != nil {
		return apperr.Wrap(apperr.ErrIO, "copy to clipboard", err)
	}
	fmt.Fprintf(s.out, "copied %d commit(s) to clipboard\n", len(doc.Commits))
	return nil
}

func (s *Session) save(args []string) error {
	path := s.path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return apperr.New(apperr.ErrUsage, "usage: save <path>")
	}
	if err := Save(s.viewer, path, s.now()); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %d commit(s) to %s\n", len(s.viewer.Commits()), path)
	return nil
}

// Save writes the viewer's set as a JSON document and clears its dirty flag.
func Save(v *Viewer, path string, now time.Time) error {
	out, err := export.JSON{}.Render(v.Document("", now))
	if err != nil {
		return err
	}
	if err := export.WriteFileAtomic(path, []byte(out)); err != nil {
		return err
	}
	v.MarkSaved()
	return nil
}

// ShellConfig configures the interactive editor.
type ShellConfig struct {
	Prompt      string
	HistoryFile string
}

// RunShell starts the interactive editor and blocks until exit.
func RunShell(s *Session, cfg ShellConfig) error {
	if cfg.Prompt == "" {
		cfg.Prompt = "changelog> "
	}
	sh := ishell.New()
	sh.SetPrompt(cfg.Prompt)
	if cfg.HistoryFile != "" {
		sh.SetHistoryPath(cfg.HistoryFile)
	}
	s.out = shellWriter{sh}

	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		cmd := cmd
		names = append(names, cmd.name)
		sh.AddCmd(&ishell.Cmd{
			Name:     cmd.name,
			Help:     cmd.help,
			LongHelp: cmd.usage,
			Func: func(c *ishell.Context) {
				if err := cmd.run(s, c.Args); err != nil {
					c.Println("error:", err)
				}
			},
		})
	}
	sort.Strings(names)

	sh.DeleteCmd("exit")
	sh.AddCmd(&ishell.Cmd{
		Name: "exit",
		Help: "leave the editor",
		Func: func(c *ishell.Context) {
			if s.viewer.Dirty() {
				c.Println("unsaved changes discarded (use save first to keep them)")
			}
			c.Stop()
		},
	})

	logger.Debug("Starting changelog editor", "file", s.path, "commits", len(s.viewer.Commits()))
	sh.Printf("%s: %d commit(s). Commands: %s, exit\n", s.viewer.Title(), len(s.viewer.Commits()), strings.Join(names, ", "))
	sh.Run()
	sh.Close()
	return nil
}

type shellWriter struct{ sh *ishell.Shell }

func (w shellWriter) Write(p []byte) (int, error) {
	w.sh.Print(string(p))
	return len(p), nil
}
