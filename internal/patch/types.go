// Package patch models unified and git extended diffs as a structured,
// reversible tree of files, hunks and lines, and converts between that
// tree and diff text.
package patch

// Format identifies the diff dialect a patch was parsed from.
type Format string

const (
	// FormatUnified is plain "--- / +++" unified diff output.
	FormatUnified Format = "unified"
	// FormatExtended is git-style diff output with "diff --git" headers.
	FormatExtended Format = "extended"
)

// ChangeKind classifies a single diff line.
type ChangeKind int

const (
	Context ChangeKind = iota
	Add
	Delete
)

// String returns the diff marker for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "+"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// Change is one line of a hunk body. Content carries no leading marker.
// OldLine is set for Delete and Context changes, NewLine for Add and
// Context changes; 0 means "not applicable".
type Change struct {
	Kind    ChangeKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is one contiguous "@@ ... @@" block. Starts and counts follow the
// unified diff convention: 1-based starts, counts defaulting to 1 when
// omitted from the header. FunctionContext is the trailing text on the
// "@@" line, if any.
type Hunk struct {
	OldStart        int
	OldCount        int
	NewStart        int
	NewCount        int
	FunctionContext string
	Changes         []Change
}

// OldLines returns the Delete and Context line contents in order, i.e.
// the hunk's view of the pre-patch file region.
func (h *Hunk) OldLines() []string {
	var lines []string
	for _, c := range h.Changes {
		if c.Kind == Delete || c.Kind == Context {
			lines = append(lines, c.Content)
		}
	}
	return lines
}

// NewLines returns the Add and Context line contents in order, i.e. the
// hunk's view of the post-patch file region.
func (h *Hunk) NewLines() []string {
	var lines []string
	for _, c := range h.Changes {
		if c.Kind == Add || c.Kind == Context {
			lines = append(lines, c.Content)
		}
	}
	return lines
}

// Additions counts the Add changes in the hunk.
func (h *Hunk) Additions() int {
	n := 0
	for _, c := range h.Changes {
		if c.Kind == Add {
			n++
		}
	}
	return n
}

// Deletions counts the Delete changes in the hunk.
func (h *Hunk) Deletions() int {
	n := 0
	for _, c := range h.Changes {
		if c.Kind == Delete {
			n++
		}
	}
	return n
}

// FilePatch is the complete set of hunks plus file-level metadata for one
// file. An empty OldPath means the file is new; an empty NewPath means it
// was deleted.
type FilePatch struct {
	OldPath string
	NewPath string

	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	IsBinary  bool

	// Extended-header metadata, empty/zero when not present.
	OldMode         string
	NewMode         string
	SimilarityIndex int

	Hunks []Hunk
}

// Path returns the file's effective path: the new path when present,
// otherwise the old one.
func (f *FilePatch) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// Additions counts Add changes across all hunks.
func (f *FilePatch) Additions() int {
	n := 0
	for i := range f.Hunks {
		n += f.Hunks[i].Additions()
	}
	return n
}

// Deletions counts Delete changes across all hunks.
func (f *FilePatch) Deletions() int {
	n := 0
	for i := range f.Hunks {
		n += f.Hunks[i].Deletions()
	}
	return n
}

// Patch is the top-level container for every file parsed from one diff.
type Patch struct {
	Format Format
	Files  []FilePatch
}

// IsEmpty reports whether the patch contains no file changes.
func (p *Patch) IsEmpty() bool {
	return len(p.Files) == 0
}

// Additions counts Add changes across the whole patch.
func (p *Patch) Additions() int {
	n := 0
	for i := range p.Files {
		n += p.Files[i].Additions()
	}
	return n
}

// Deletions counts Delete changes across the whole patch.
func (p *Patch) Deletions() int {
	n := 0
	for i := range p.Files {
		n += p.Files[i].Deletions()
	}
	return n
}

// File returns the FilePatch whose effective path matches path, or nil.
func (p *Patch) File(path string) *FilePatch {
	for i := range p.Files {
		if p.Files[i].Path() == path {
			return &p.Files[i]
		}
	}
	return nil
}

// NewFiles lists the paths of files created by the patch.
func (p *Patch) NewFiles() []string {
	var paths []string
	for i := range p.Files {
		if p.Files[i].IsNew {
			paths = append(paths, p.Files[i].Path())
		}
	}
	return paths
}

// DeletedFiles lists the paths of files removed by the patch.
func (p *Patch) DeletedFiles() []string {
	var paths []string
	for i := range p.Files {
		if p.Files[i].IsDeleted {
			paths = append(paths, p.Files[i].Path())
		}
	}
	return paths
}

// RenamedFiles lists old→new path pairs for renamed files.
func (p *Patch) RenamedFiles() [][2]string {
	var pairs [][2]string
	for i := range p.Files {
		if p.Files[i].IsRenamed {
			pairs = append(pairs, [2]string{p.Files[i].OldPath, p.Files[i].NewPath})
		}
	}
	return pairs
}

// ModifiedFiles lists the paths of files changed in place (not created,
// deleted or renamed).
func (p *Patch) ModifiedFiles() []string {
	var paths []string
	for i := range p.Files {
		f := &p.Files[i]
		if !f.IsNew && !f.IsDeleted && !f.IsRenamed {
			paths = append(paths, f.Path())
		}
	}
	return paths
}
