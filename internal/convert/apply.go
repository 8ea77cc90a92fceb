// Package convert turns a parsed patch into edits: generated rejig
// Python code, a standalone script, or direct file mutation through a
// workspace file system.
package convert

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/rejig-dev/rejig/internal/patch"
	"github.com/rejig-dev/rejig/internal/workspace"
)

// File actions reported in apply results.
const (
	ActionCreated  = "created"
	ActionModified = "modified"
	ActionDeleted  = "deleted"
	ActionRenamed  = "renamed"
	ActionSkipped  = "skipped"
)

// FileResult is the outcome of applying one file's patch. Failures are
// data, not errors: one file failing never aborts the batch.
type FileResult struct {
	Path   string
	Action string
	OK     bool
	Err    string
	Diff   string // populated in dry runs
}

// ApplyResult aggregates per-file outcomes for one Apply call.
type ApplyResult struct {
	Files  []FileResult
	DryRun bool
}

// OK reports whether every file succeeded.
func (r *ApplyResult) OK() bool {
	for _, f := range r.Files {
		if !f.OK {
			return false
		}
	}
	return true
}

// Changed lists the paths actually modified, created, deleted or
// renamed, in order.
func (r *ApplyResult) Changed() []string {
	var paths []string
	for _, f := range r.Files {
		if f.OK && f.Action != ActionSkipped {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// ApplyOptions tunes one Apply call. The zero value applies for real
// with no filtering or verification.
type ApplyOptions struct {
	// DryRun computes and reports every change without touching a file.
	DryRun bool
	// Ignore, when set, skips files whose path it matches (gitignore
	// filtering lives in the caller).
	Ignore func(path string) bool
	// Verify, when set, is run against each candidate file content
	// before it is written; an error fails that file.
	Verify func(path, content string) error
	// Logger receives per-file progress. Nil disables logging.
	Logger *zap.Logger
}

func (o *ApplyOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Apply mutates files under fs according to the patch. Files are
// processed one at a time; a failed file is recorded and processing
// moves on, so callers must inspect the aggregate result.
func Apply(p *patch.Patch, fs workspace.FileSystem, opts ApplyOptions) *ApplyResult {
	log := opts.logger()
	result := &ApplyResult{DryRun: opts.DryRun}

	for i := range p.Files {
		f := &p.Files[i]
		fr := applyFile(f, fs, &opts)
		if fr.OK {
			log.Info("file patched",
				zap.String("path", fr.Path),
				zap.String("action", fr.Action),
				zap.Bool("dry_run", opts.DryRun),
			)
		} else {
			log.Warn("file patch failed",
				zap.String("path", fr.Path),
				zap.String("error", fr.Err),
			)
		}
		result.Files = append(result.Files, fr)
	}
	return result
}

func applyFile(f *patch.FilePatch, fs workspace.FileSystem, opts *ApplyOptions) FileResult {
	path := f.Path()

	if opts.Ignore != nil && opts.Ignore(path) {
		return FileResult{Path: path, Action: ActionSkipped, OK: true}
	}
	if f.IsBinary {
		return fail(path, "binary patches carry no content to apply")
	}

	switch {
	case f.IsNew:
		return applyCreate(f, fs, opts)
	case f.IsDeleted:
		return applyDelete(f, fs, opts)
	default:
		return applyModify(f, fs, opts)
	}
}

func applyCreate(f *patch.FilePatch, fs workspace.FileSystem, opts *ApplyOptions) FileResult {
	path := f.Path()
	if !opts.DryRun && fs.Exists(path) {
		return fail(path, "file already exists")
	}

	content := NewFileContent(f)
	if err := verifyContent(opts, path, content); err != nil {
		return fail(path, err.Error())
	}
	if opts.DryRun {
		return FileResult{Path: path, Action: ActionCreated, OK: true, Diff: unifiedDiff("", content, path)}
	}
	if err := fs.WriteFile(path, content); err != nil {
		return fail(path, err.Error())
	}
	return FileResult{Path: path, Action: ActionCreated, OK: true}
}

func applyDelete(f *patch.FilePatch, fs workspace.FileSystem, opts *ApplyOptions) FileResult {
	path := f.OldPath
	if !fs.Exists(path) {
		return fail(path, "file does not exist")
	}
	if opts.DryRun {
		old, err := fs.ReadFile(path)
		if err != nil {
			return fail(path, err.Error())
		}
		return FileResult{Path: path, Action: ActionDeleted, OK: true, Diff: unifiedDiff(old, "", path)}
	}
	if err := fs.Remove(path); err != nil {
		return fail(path, err.Error())
	}
	return FileResult{Path: path, Action: ActionDeleted, OK: true}
}

func applyModify(f *patch.FilePatch, fs workspace.FileSystem, opts *ApplyOptions) FileResult {
	oldPath := f.OldPath
	if oldPath == "" {
		oldPath = f.NewPath
	}
	path := f.Path()

	if !fs.Exists(oldPath) {
		return fail(path, "file does not exist")
	}
	old, err := fs.ReadFile(oldPath)
	if err != nil {
		return fail(path, err.Error())
	}

	updated, err := ApplyHunks(old, f.Hunks)
	if err != nil {
		return fail(path, err.Error())
	}
	if err := verifyContent(opts, path, updated); err != nil {
		return fail(path, err.Error())
	}

	action := ActionModified
	if f.IsRenamed {
		action = ActionRenamed
	}
	if opts.DryRun {
		return FileResult{Path: path, Action: action, OK: true, Diff: unifiedDiff(old, updated, path)}
	}

	if err := fs.WriteFile(path, updated); err != nil {
		return fail(path, err.Error())
	}
	if f.IsRenamed && oldPath != path {
		if err := fs.Remove(oldPath); err != nil {
			return fail(path, err.Error())
		}
	}
	return FileResult{Path: path, Action: action, OK: true}
}

// ApplyHunks is the pure half of apply: it splices every hunk into the
// old content and returns the new content, touching no file system.
//
// Hunks are applied in reverse order. Each hunk's recorded OldStart is a
// position in the original file; applying bottom-to-top means earlier
// hunks' positions are never shifted by the net line delta of hunks
// below them.
func ApplyHunks(content string, hunks []patch.Hunk) (string, error) {
	// An empty file counts as newline-terminated: emptying a file and
	// reverse-applying must restore the original bytes, and inserting
	// into an empty file should yield conventional terminated output.
	trailing := content == "" || strings.HasSuffix(content, "\n")
	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
		if strings.HasSuffix(content, "\n") {
			lines = lines[:len(lines)-1]
		}
	}

	for i := len(hunks) - 1; i >= 0; i-- {
		h := &hunks[i]

		// Half-open 0-based range in the old file. A zero OldCount is a
		// pure insertion after line OldStart.
		start := h.OldStart - 1
		end := start + h.OldCount
		if h.OldCount == 0 {
			start = h.OldStart
			end = start
		}
		if start < 0 || end > len(lines) {
			return "", fmt.Errorf("hunk %d: range %d-%d outside file of %d lines", i+1, start+1, end, len(lines))
		}

		for j, want := range h.OldLines() {
			if got := lines[start+j]; got != want {
				return "", fmt.Errorf("hunk %d: mismatch at line %d: expected %q, found %q", i+1, start+j+1, want, got)
			}
		}

		repl := h.NewLines()
		next := make([]string, 0, len(lines)-(end-start)+len(repl))
		next = append(next, lines[:start]...)
		next = append(next, repl...)
		next = append(next, lines[end:]...)
		lines = next
	}

	out := strings.Join(lines, "\n")
	if trailing && len(lines) > 0 {
		out += "\n"
	}
	return out, nil
}

// NewFileContent rebuilds a created file purely from its hunks' new
// side, with a trailing newline enforced.
func NewFileContent(f *patch.FilePatch) string {
	var lines []string
	for i := range f.Hunks {
		lines = append(lines, f.Hunks[i].NewLines()...)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func verifyContent(opts *ApplyOptions, path, content string) error {
	if opts.Verify == nil {
		return nil
	}
	return opts.Verify(path, content)
}

func unifiedDiff(old, updated, path string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(updated),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	return diff
}

func fail(path, msg string) FileResult {
	return FileResult{Path: path, OK: false, Err: msg}
}
