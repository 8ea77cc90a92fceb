package patch

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	gitHeaderRe       = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRe      = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
	oldModeRe         = regexp.MustCompile(`^old mode (\d+)$`)
	newModeRe         = regexp.MustCompile(`^new mode (\d+)$`)
	newFileModeRe     = regexp.MustCompile(`^new file mode (\d+)$`)
	deletedFileModeRe = regexp.MustCompile(`^deleted file mode (\d+)$`)
	renameFromRe      = regexp.MustCompile(`^rename from (.+)$`)
	renameToRe        = regexp.MustCompile(`^rename to (.+)$`)
	similarityRe      = regexp.MustCompile(`^similarity index (\d+)%$`)
	indexLineRe       = regexp.MustCompile(`^index [0-9a-f]+\.\.[0-9a-f]+`)
	binaryRe          = regexp.MustCompile(`^Binary files (.+) and (.+) differ$`)
)

// parser holds the scanning state threaded through one Parse call: the
// file and hunk currently being built, the running line counters seeded
// from the hunk header, and how many body lines the header still owes us.
type parser struct {
	patch *Patch

	file *FilePatch
	hunk *Hunk

	oldLine int
	newLine int
	oldLeft int
	newLeft int

	// sawOldHeader is true once the current file consumed a "---" line,
	// so a second one signals the next file in a plain unified stream.
	sawOldHeader bool
	sawGit       bool
}

// Parse turns diff text into a structured Patch. Both plain unified and
// git extended headers are handled, mixed freely in one input. Parsing is
// tolerant: malformed or decorative lines are skipped, never fatal, and
// empty input yields an empty patch.
func Parse(text string) *Patch {
	p := &parser{patch: &Patch{Format: FormatUnified}}
	for _, line := range strings.Split(text, "\n") {
		p.scanLine(strings.TrimSuffix(line, "\r"))
	}
	p.flushFile()
	if p.sawGit {
		p.patch.Format = FormatExtended
	}
	return p.patch
}

func (p *parser) scanLine(line string) {
	// Inside an unfinished hunk the body prefixes win; everything else
	// marks a boundary.
	if p.hunk != nil && p.hunkOpen() && p.scanBodyLine(line) {
		return
	}

	if m := gitHeaderRe.FindStringSubmatch(line); m != nil {
		p.flushFile()
		p.sawGit = true
		p.file = &FilePatch{OldPath: m[1], NewPath: m[2]}
		return
	}

	if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
		p.startHunk(m)
		return
	}

	if strings.HasPrefix(line, "--- ") {
		p.scanOldHeader(line[4:])
		return
	}
	if strings.HasPrefix(line, "+++ ") {
		p.scanNewHeader(line[4:])
		return
	}

	if p.file != nil {
		p.scanExtendedHeader(line)
		return
	}
	// Anything before the first file header is commentary; ignore it.
}

// hunkOpen reports whether the current hunk header still owes body lines.
func (p *parser) hunkOpen() bool {
	return p.oldLeft > 0 || p.newLeft > 0
}

// scanBodyLine consumes one hunk body line. It returns false when the
// line does not belong to the hunk body, leaving it for header handling.
func (p *parser) scanBodyLine(line string) bool {
	if line == "" {
		// Some tools emit context lines with the leading space trimmed.
		p.addContext("")
		return true
	}
	switch line[0] {
	case '+':
		c := Change{Kind: Add, Content: line[1:], NewLine: p.newLine}
		p.newLine++
		p.newLeft--
		p.appendChange(c)
		return true
	case '-':
		c := Change{Kind: Delete, Content: line[1:], OldLine: p.oldLine}
		p.oldLine++
		p.oldLeft--
		p.appendChange(c)
		return true
	case ' ':
		p.addContext(line[1:])
		return true
	case '\\':
		// "\ No newline at end of file" marker.
		return true
	}
	return false
}

func (p *parser) addContext(content string) {
	c := Change{Kind: Context, Content: content, OldLine: p.oldLine, NewLine: p.newLine}
	p.oldLine++
	p.newLine++
	p.oldLeft--
	p.newLeft--
	p.appendChange(c)
}

// appendChange records a body line and finalizes the hunk once its header
// counts are satisfied, so that trailing "---" lines in a plain unified
// stream are read as the next file header rather than deletions.
func (p *parser) appendChange(c Change) {
	p.hunk.Changes = append(p.hunk.Changes, c)
	if !p.hunkOpen() {
		p.flushHunk()
	}
}

func (p *parser) startHunk(m []string) {
	if p.file == nil {
		// A stray hunk without any file header; attach it to an unnamed
		// file rather than dropping the changes.
		p.file = &FilePatch{}
	}
	p.flushHunk()

	oldStart, _ := strconv.Atoi(m[1])
	oldCount := 1
	if m[2] != "" {
		oldCount, _ = strconv.Atoi(m[2])
	}
	newStart, _ := strconv.Atoi(m[3])
	newCount := 1
	if m[4] != "" {
		newCount, _ = strconv.Atoi(m[4])
	}

	p.hunk = &Hunk{
		OldStart:        oldStart,
		OldCount:        oldCount,
		NewStart:        newStart,
		NewCount:        newCount,
		FunctionContext: strings.TrimSpace(m[5]),
	}
	p.oldLine = oldStart
	p.newLine = newStart
	p.oldLeft = oldCount
	p.newLeft = newCount
	if !p.hunkOpen() {
		// Degenerate "@@ -0,0 +0,0 @@" header.
		p.flushHunk()
	}
}

// scanOldHeader handles a "---" line. Distinguishing the first header of
// the next file from decoration is heuristic for plain unified streams:
// once the current file has hunks (or already saw its own "---"), a new
// "---" is taken to introduce the next file. Hand-crafted diffs that
// violate this convention may be split incorrectly; see DESIGN.md.
func (p *parser) scanOldHeader(rest string) {
	if p.file != nil && (len(p.file.Hunks) > 0 || p.hunk != nil || p.sawOldHeader) {
		p.flushFile()
	}
	if p.file == nil {
		p.file = &FilePatch{}
	}
	p.sawOldHeader = true

	path := parseHeaderPath(rest)
	if path == "" {
		p.file.IsNew = true
		p.file.OldPath = ""
		return
	}
	p.file.OldPath = path
}

func (p *parser) scanNewHeader(rest string) {
	if p.file == nil {
		return
	}
	path := parseHeaderPath(rest)
	if path == "" {
		p.file.IsDeleted = true
		p.file.NewPath = ""
		return
	}
	p.file.NewPath = path
}

func (p *parser) scanExtendedHeader(line string) {
	switch {
	case newFileModeRe.MatchString(line):
		p.file.IsNew = true
		p.file.NewMode = newFileModeRe.FindStringSubmatch(line)[1]
	case deletedFileModeRe.MatchString(line):
		p.file.IsDeleted = true
		p.file.OldMode = deletedFileModeRe.FindStringSubmatch(line)[1]
	case oldModeRe.MatchString(line):
		p.file.OldMode = oldModeRe.FindStringSubmatch(line)[1]
	case newModeRe.MatchString(line):
		p.file.NewMode = newModeRe.FindStringSubmatch(line)[1]
	case renameFromRe.MatchString(line):
		p.file.IsRenamed = true
		p.file.OldPath = renameFromRe.FindStringSubmatch(line)[1]
	case renameToRe.MatchString(line):
		p.file.IsRenamed = true
		p.file.NewPath = renameToRe.FindStringSubmatch(line)[1]
	case similarityRe.MatchString(line):
		n, _ := strconv.Atoi(similarityRe.FindStringSubmatch(line)[1])
		p.file.SimilarityIndex = n
	case indexLineRe.MatchString(line):
		// Blob hashes are not kept in the model.
	case binaryRe.MatchString(line):
		m := binaryRe.FindStringSubmatch(line)
		p.file.IsBinary = true
		if parseHeaderPath(m[1]) == "" {
			p.file.IsNew = true
			p.file.OldPath = ""
		}
		if parseHeaderPath(m[2]) == "" {
			p.file.IsDeleted = true
			p.file.NewPath = ""
		}
	}
	// Unrecognized lines between files are ignored by design.
}

// flushHunk finalizes the hunk under construction, if any.
func (p *parser) flushHunk() {
	if p.hunk == nil {
		return
	}
	p.file.Hunks = append(p.file.Hunks, *p.hunk)
	p.hunk = nil
	p.oldLeft = 0
	p.newLeft = 0
}

// flushFile finalizes the file under construction, deriving creation and
// deletion flags from absent paths.
func (p *parser) flushFile() {
	p.flushHunk()
	if p.file == nil {
		return
	}
	if p.file.OldPath == "" && p.file.NewPath != "" {
		p.file.IsNew = true
	}
	if p.file.NewPath == "" && p.file.OldPath != "" {
		p.file.IsDeleted = true
	}
	p.patch.Files = append(p.patch.Files, *p.file)
	p.file = nil
	p.sawOldHeader = false
}

// parseHeaderPath extracts the path from a "---"/"+++" header value,
// stripping the a/ or b/ prefix and any trailing timestamp. "/dev/null"
// becomes the empty path.
func parseHeaderPath(s string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(s, "a/") || strings.HasPrefix(s, "b/") {
		return s[2:]
	}
	return s
}
