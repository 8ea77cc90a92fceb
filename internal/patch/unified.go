package patch

import (
	"fmt"
	"strings"
)

const defaultFileMode = "100644"

// UnifiedDiff regenerates diff text for the patch. Extended patches get
// their git headers back; plain unified patches get bare "---"/"+++"
// pairs. Parsing the result yields a structurally identical patch.
func (p *Patch) UnifiedDiff() string {
	var b strings.Builder
	for i := range p.Files {
		writeFilePatch(&b, &p.Files[i], p.Format == FormatExtended)
	}
	return b.String()
}

func writeFilePatch(b *strings.Builder, f *FilePatch, extended bool) {
	if extended {
		writeGitHeader(b, f)
	}
	if f.IsBinary {
		fmt.Fprintf(b, "Binary files %s and %s differ\n", oldHeaderName(f), newHeaderName(f))
		return
	}
	if len(f.Hunks) == 0 {
		return
	}
	fmt.Fprintf(b, "--- %s\n", oldHeaderName(f))
	fmt.Fprintf(b, "+++ %s\n", newHeaderName(f))
	for i := range f.Hunks {
		writeHunk(b, &f.Hunks[i])
	}
}

func writeGitHeader(b *strings.Builder, f *FilePatch) {
	// Git names both sides even for creations and deletions.
	oldPath := f.OldPath
	if oldPath == "" {
		oldPath = f.NewPath
	}
	newPath := f.NewPath
	if newPath == "" {
		newPath = f.OldPath
	}
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", oldPath, newPath)

	switch {
	case f.IsNew:
		fmt.Fprintf(b, "new file mode %s\n", orDefault(f.NewMode, defaultFileMode))
	case f.IsDeleted:
		fmt.Fprintf(b, "deleted file mode %s\n", orDefault(f.OldMode, defaultFileMode))
	default:
		if f.OldMode != "" && f.NewMode != "" {
			fmt.Fprintf(b, "old mode %s\n", f.OldMode)
			fmt.Fprintf(b, "new mode %s\n", f.NewMode)
		}
	}
	if f.SimilarityIndex > 0 {
		fmt.Fprintf(b, "similarity index %d%%\n", f.SimilarityIndex)
	}
	if f.IsRenamed {
		fmt.Fprintf(b, "rename from %s\n", f.OldPath)
		fmt.Fprintf(b, "rename to %s\n", f.NewPath)
	}
}

func writeHunk(b *strings.Builder, h *Hunk) {
	b.WriteString("@@ -")
	writeRange(b, h.OldStart, h.OldCount)
	b.WriteString(" +")
	writeRange(b, h.NewStart, h.NewCount)
	b.WriteString(" @@")
	if h.FunctionContext != "" {
		b.WriteByte(' ')
		b.WriteString(h.FunctionContext)
	}
	b.WriteByte('\n')
	for _, c := range h.Changes {
		b.WriteString(c.Kind.String())
		b.WriteString(c.Content)
		b.WriteByte('\n')
	}
}

// writeRange prints a hunk range, omitting the count when it is 1 per the
// unified diff convention.
func writeRange(b *strings.Builder, start, count int) {
	if count == 1 {
		fmt.Fprintf(b, "%d", start)
		return
	}
	fmt.Fprintf(b, "%d,%d", start, count)
}

func oldHeaderName(f *FilePatch) string {
	if f.OldPath == "" {
		return "/dev/null"
	}
	return "a/" + f.OldPath
}

func newHeaderName(f *FilePatch) string {
	if f.NewPath == "" {
		return "/dev/null"
	}
	return "b/" + f.NewPath
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
