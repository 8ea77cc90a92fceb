// Package target offers fluent entry points over the patch model, the
// analyzer and the converter, so callers can navigate a parsed diff
// without importing each package separately.
package target

import (
	"strings"

	"github.com/rejig-dev/rejig/internal/analyze"
	"github.com/rejig-dev/rejig/internal/convert"
	"github.com/rejig-dev/rejig/internal/patch"
	"github.com/rejig-dev/rejig/internal/workspace"
)

// PatchTarget wraps a whole patch.
type PatchTarget struct {
	p *patch.Patch
}

// New wraps an already-parsed patch.
func New(p *patch.Patch) *PatchTarget {
	return &PatchTarget{p: p}
}

// FromText parses diff text and wraps the result.
func FromText(text string) *PatchTarget {
	return New(patch.Parse(text))
}

// Patch returns the underlying model.
func (t *PatchTarget) Patch() *patch.Patch {
	return t.p
}

// Reverse returns a target over the undo patch.
func (t *PatchTarget) Reverse() *PatchTarget {
	return New(t.p.Reverse())
}

// Files returns a target per file, in patch order.
func (t *PatchTarget) Files() []*FileTarget {
	out := make([]*FileTarget, len(t.p.Files))
	for i := range t.p.Files {
		out[i] = &FileTarget{f: &t.p.Files[i]}
	}
	return out
}

// File looks up the file target whose effective path matches.
func (t *PatchTarget) File(path string) *FileTarget {
	if f := t.p.File(path); f != nil {
		return &FileTarget{f: f}
	}
	return nil
}

// Operations returns the deduplicated, priority-ordered operations.
func (t *PatchTarget) Operations() []analyze.Operation {
	return analyze.OptimalOperations(t.p)
}

// Code generates rejig calls for the patch.
func (t *PatchTarget) Code(mode convert.Mode) string {
	return convert.GenerateCode(t.p, mode)
}

// Script generates a runnable script for the patch.
func (t *PatchTarget) Script(mode convert.Mode) string {
	return convert.GenerateScript(t.p, mode)
}

// Apply runs the converter's apply path against fs.
func (t *PatchTarget) Apply(fs workspace.FileSystem, opts convert.ApplyOptions) *convert.ApplyResult {
	return convert.Apply(t.p, fs, opts)
}

// FileTarget wraps one file's patch.
type FileTarget struct {
	f *patch.FilePatch
}

// FilePatch returns the underlying model.
func (t *FileTarget) FilePatch() *patch.FilePatch {
	return t.f
}

// Path returns the file's effective path.
func (t *FileTarget) Path() string {
	return t.f.Path()
}

// Hunks returns a target per hunk.
func (t *FileTarget) Hunks() []*HunkTarget {
	out := make([]*HunkTarget, len(t.f.Hunks))
	for i := range t.f.Hunks {
		out[i] = &HunkTarget{h: &t.f.Hunks[i]}
	}
	return out
}

// Hunk returns the i-th hunk target, or nil when out of range.
func (t *FileTarget) Hunk(i int) *HunkTarget {
	if i < 0 || i >= len(t.f.Hunks) {
		return nil
	}
	return &HunkTarget{h: &t.f.Hunks[i]}
}

// ApplyTo splices this file's hunks into content.
func (t *FileTarget) ApplyTo(content string) (string, error) {
	return convert.ApplyHunks(content, t.f.Hunks)
}

// NewContent rebuilds the file's post-patch content from the hunks;
// only meaningful for created files.
func (t *FileTarget) NewContent() string {
	return convert.NewFileContent(t.f)
}

// HunkTarget wraps one hunk.
type HunkTarget struct {
	h *patch.Hunk
}

// Hunk returns the underlying model.
func (t *HunkTarget) Hunk() *patch.Hunk {
	return t.h
}

// OldRange returns the 1-based start line and count on the old side.
func (t *HunkTarget) OldRange() (start, count int) {
	return t.h.OldStart, t.h.OldCount
}

// NewRange returns the 1-based start line and count on the new side.
func (t *HunkTarget) NewRange() (start, count int) {
	return t.h.NewStart, t.h.NewCount
}

// OldText returns the hunk's old side joined with newlines.
func (t *HunkTarget) OldText() string {
	return strings.Join(t.h.OldLines(), "\n")
}

// NewText returns the hunk's new side joined with newlines.
func (t *HunkTarget) NewText() string {
	return strings.Join(t.h.NewLines(), "\n")
}
