// Package release cuts a release: it picks the next semantic version, prepends a section
// to the changelog, bumps manifest versions, then tags and optionally pushes.
package release

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/collect"
	"gitchangelog/internal/export"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/logger"
	"gitchangelog/pkg/changelogtypes"
)

// Summarizer writes a short highlights paragraph for the commits of a release.
type Summarizer interface {
	Summarize(ctx context.Context, tag string, commits []changelogtypes.Commit) (string, error)
}

// Result reports what a run did, or would have done in dry-run mode.
type Result struct {
	Version     string
	Tag         string
	PreviousTag string
	Commits     int
	Section     string
	DryRun      bool
	Steps       []string
	Written     []string
	Previews    []Preview
}

// Sequencer runs the release steps in a fixed order against one repository.
type Sequencer struct {
	repo       gitlog.Repository
	collector  *collect.Collector
	summarizer Summarizer
	now        func() time.Time
	log        *log.Logger
}

// NewSequencer creates a Sequencer. summarizer may be nil.
func NewSequencer(repo gitlog.Repository, summarizer Summarizer) *Sequencer {
	return &Sequencer{
		repo:       repo,
		collector:  collect.New(repo),
		summarizer: summarizer,
		now:        time.Now,
		log:        logger.NewStyledLogger("release"),
	}
}

// WithClock replaces the clock used for the release date.
func (s *Sequencer) WithClock(now func() time.Time) *Sequencer {
	s.now = now
	return s
}

// state carries values between steps of one run.
type state struct {
	opts        Options
	version     *semver.Version
	tag         string
	previousTag string
	commits     []changelogtypes.Commit
	section     string
	result      *Result
}

type fileEdit struct {
	step   string
	path   string
	before string
	after  string
}

type step struct {
	name     string
	mutating bool
	enabled  func(opts Options) bool
	run      func(ctx context.Context, st *state) error
	preview  func(ctx context.Context, st *state) error
}

func always(Options) bool { return true }

func (s *Sequencer) steps() []step {
	return []step{
		{name: "validate-repo", enabled: always, run: s.validateRepo},
		{name: "validate-clean-tree", enabled: always, run: s.validateCleanTree},
		{name: "determine-version", enabled: always, run: s.determineVersion},
		{name: "generate-changelog-section", enabled: always, run: s.generateSection},
		{name: "append-to-changelog-file", mutating: true, enabled: always, run: s.appendChangelog, preview: s.previewChangelog},
		{name: "update-manifest-version", mutating: true, enabled: always, run: s.updateManifests, preview: s.previewManifests},
		{name: "commit-working-tree", mutating: true, enabled: func(o Options) bool { return o.Commit }, run: s.commitTree, preview: s.previewCommit},
		{name: "create-tag", mutating: true, enabled: always, run: s.createTag, preview: s.previewTag},
		{name: "push-tag", mutating: true, enabled: func(o Options) bool { return o.Push }, run: s.pushTag, preview: s.previewPush},
	}
}

// Run validates opts and executes every enabled step. In dry-run mode mutating steps only
// log what they would change.
func (s *Sequencer) Run(ctx context.Context, opts Options) (*Result, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	st := &state{opts: opts, result: &Result{DryRun: opts.DryRun}}
	var applied []string
	for _, stp := range s.steps() {
		if !stp.enabled(opts) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return st.result, err
		}
		logger.Step(stp.name, opts.DryRun)

		run := stp.run
		if stp.mutating && opts.DryRun {
			run = stp.preview
		}
		if err := run(ctx, st); err != nil {
			s.log.Error("release step failed", "step", stp.name, "error", err)
			if len(applied) > 0 {
				logger.Error("release partially applied", "completed", strings.Join(applied, ","), "failed", stp.name)
			}
			return st.result, err
		}
		st.result.Steps = append(st.result.Steps, stp.name)
		if stp.mutating && !opts.DryRun {
			applied = append(applied, stp.name)
		}
	}
	return st.result, nil
}

func (s *Sequencer) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.repo.Dir(), name)
}

func (s *Sequencer) validateRepo(ctx context.Context, _ *state) error {
	return gitlog.RequireRepository(ctx, s.repo)
}

func (s *Sequencer) validateCleanTree(ctx context.Context, st *state) error {
	clean, err := s.repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if clean {
		return nil
	}
	if st.opts.Force {
		s.log.Warn("working tree has uncommitted changes, continuing because of --force")
		return nil
	}
	return apperr.New(apperr.ErrDirtyTree, "working tree has uncommitted changes (commit or stash them, or use --force)")
}

func (s *Sequencer) determineVersion(ctx context.Context, st *state) error {
	tags, err := s.repo.Tags(ctx)
	if err != nil {
		return err
	}

	if st.opts.Version != "" {
		if st.version, err = ParseVersion(st.opts.Version, st.opts.Prefix); err != nil {
			return err
		}
	}
	st.tag = st.opts.Prefix + versionString(st.version)

	// The tag being (re)created never counts as the previous release.
	var others []string
	for _, t := range tags {
		if st.version == nil || t != st.tag {
			others = append(others, t)
		}
	}
	prevName, prev, _ := LatestTag(others, st.opts.Prefix)
	st.previousTag = prevName

	if st.version == nil {
		if st.version, err = Bump(prev, st.opts.Increment); err != nil {
			return err
		}
		st.tag = st.opts.Prefix + st.version.String()
	}

	st.result.Version = st.version.String()
	st.result.Tag = st.tag
	st.result.PreviousTag = st.previousTag
	s.log.Info("next version", "version", st.result.Version, "tag", st.tag, "previous", st.previousTag)

	exists, err := s.repo.TagExists(ctx, st.tag)
	if err != nil {
		return err
	}
	if exists && !st.opts.Force {
		return apperr.Newf(apperr.ErrTagExists, "tag %s already exists (use --force to replace it)", st.tag)
	}

	if st.opts.Push {
		ok, err := s.repo.HasRemote(ctx, st.opts.Remote)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Newf(apperr.ErrNoRemote, "cannot push: remote %q is not configured", st.opts.Remote)
		}
	}
	return nil
}

func versionString(v *semver.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func (s *Sequencer) generateSection(ctx context.Context, st *state) error {
	query := gitlog.Query{}
	if st.opts.SinceLastTag && st.previousTag != "" {
		query.FromRef = st.previousTag
	}
	commits, err := s.collector.Collect(ctx, collect.Options{
		Query:       query,
		IncludeTime: st.opts.IncludeTime,
		AllowEmpty:  true,
	})
	if err != nil {
		return err
	}
	st.commits = commits
	st.result.Commits = len(commits)

	highlights := ""
	if st.opts.Summarize && len(commits) > 0 {
		highlights = s.highlights(ctx, st.tag, commits)
	}

	st.section = RenderSection(st.tag, s.now(), commits, highlights, st.opts.LinkBase)
	st.result.Section = st.section
	return nil
}

func (s *Sequencer) highlights(ctx context.Context, tag string, commits []changelogtypes.Commit) string {
	if s.summarizer == nil {
		s.log.Warn("--summarize requested but no summary provider is configured")
		return ""
	}
	text, err := s.summarizer.Summarize(ctx, tag, commits)
	if err != nil {
		s.log.Warn("could not generate release highlights", "error", err)
		return ""
	}
	return text
}

func (s *Sequencer) planChangelog(st *state) (fileEdit, error) {
	path := s.path(st.opts.ChangelogFile)
	before, _, err := readOptional(path)
	if err != nil {
		return fileEdit{}, err
	}
	return fileEdit{
		step:   "append-to-changelog-file",
		path:   path,
		before: before,
		after:  Splice(before, st.section),
	}, nil
}

func (s *Sequencer) appendChangelog(_ context.Context, st *state) error {
	path := s.path(st.opts.ChangelogFile)
	lock, err := lockFile(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	edit, err := s.planChangelog(st)
	if err != nil {
		return err
	}
	if err := export.WriteFileAtomic(path, []byte(edit.after)); err != nil {
		return err
	}
	st.result.Written = append(st.result.Written, st.opts.ChangelogFile)
	s.log.Info("changelog updated", "file", st.opts.ChangelogFile)
	return nil
}

func (s *Sequencer) previewChangelog(_ context.Context, st *state) error {
	edit, err := s.planChangelog(st)
	if err != nil {
		return err
	}
	s.addPreview(st, edit.step, st.opts.ChangelogFile, edit.before, edit.after)
	return nil
}

func (s *Sequencer) planManifests(st *state) ([]ManifestEdit, []string, error) {
	var edits []ManifestEdit
	var names []string
	for _, name := range st.opts.Manifests {
		content, exists, err := readOptional(s.path(name))
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			s.log.Debug("manifest not found, skipping", "file", name)
			continue
		}
		edit, err := EditManifest(name, content, st.version.String())
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.CodeOf(err), "update "+name, err)
		}
		if !edit.Changed() {
			continue
		}
		edits = append(edits, edit)
		names = append(names, name)
	}
	return edits, names, nil
}

func (s *Sequencer) updateManifests(_ context.Context, st *state) error {
	edits, names, err := s.planManifests(st)
	if err != nil {
		return err
	}
	for i, edit := range edits {
		if err := export.WriteFileAtomic(s.path(names[i]), []byte(edit.After)); err != nil {
			return err
		}
		st.result.Written = append(st.result.Written, names[i])
		s.log.Info("manifest version updated", "file", names[i], "version", edit.NewVersion, "previous", edit.OldVersion)
	}
	return nil
}

func (s *Sequencer) previewManifests(_ context.Context, st *state) error {
	edits, names, err := s.planManifests(st)
	if err != nil {
		return err
	}
	for i, edit := range edits {
		s.addPreview(st, "update-manifest-version", names[i], edit.Before, edit.After)
	}
	return nil
}

func (s *Sequencer) commitTree(ctx context.Context, st *state) error {
	if len(st.result.Written) == 0 {
		s.log.Info("nothing to commit")
		return nil
	}
	message := "chore(release): " + st.tag
	if err := s.repo.Commit(ctx, message, st.result.Written); err != nil {
		return err
	}
	s.log.Info("committed release files", "tag", st.tag)
	return nil
}

func (s *Sequencer) previewCommit(_ context.Context, st *state) error {
	s.log.Info("dry run: would commit release files", "tag", st.tag)
	return nil
}

func (s *Sequencer) tagMessage(st *state) string {
	if st.opts.Message != "" {
		return st.opts.Message
	}
	return "Release " + st.tag
}

func (s *Sequencer) createTag(ctx context.Context, st *state) error {
	spec := gitlog.TagSpec{
		Name:        st.tag,
		Message:     s.tagMessage(st),
		Lightweight: st.opts.Lightweight,
		Force:       st.opts.Force,
	}
	if err := s.repo.CreateTag(ctx, spec); err != nil {
		return err
	}
	s.log.Info("tag created", "tag", st.tag, "lightweight", st.opts.Lightweight)
	return nil
}

func (s *Sequencer) previewTag(_ context.Context, st *state) error {
	s.log.Info("dry run: would create tag", "tag", st.tag, "message", s.tagMessage(st), "lightweight", st.opts.Lightweight)
	return nil
}

func (s *Sequencer) pushTag(ctx context.Context, st *state) error {
	if err := s.repo.PushTag(ctx, st.opts.Remote, st.tag, st.opts.Force); err != nil {
		return err
	}
	s.log.Info("tag pushed", "tag", st.tag, "remote", st.opts.Remote)
	return nil
}

func (s *Sequencer) previewPush(_ context.Context, st *state) error {
	s.log.Info("dry run: would push tag", "tag", st.tag, "remote", st.opts.Remote)
	return nil
}

func (s *Sequencer) addPreview(st *state, stepName, path, before, after string) {
	diff := LineDiff(path, before, after)
	if diff == "" {
		return
	}
	st.result.Previews = append(st.result.Previews, Preview{Step: stepName, Path: path, Diff: diff})
	s.log.Info("dry run: would modify file", "step", stepName, "file", path)
}
