package analyze

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rejig-dev/rejig/internal/patch"
)

// Structural line classifiers for Python source. Indentation is captured
// to tell module-level functions from methods.
var (
	classDefRe  = regexp.MustCompile(`^(\s*)class\s+(\w+)\s*(?:\([^)]*\))?\s*:`)
	funcDefRe   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(`)
	decoratorRe = regexp.MustCompile(`^\s*@(\w+(?:\.\w+)*)`)
	importRe    = regexp.MustCompile(`^(from\s+\S+\s+import\s+.+|import\s+[\w.,\s]+)$`)
)

// symbols is what one side of a hunk declares, per category, in line
// order. Slices, not sets, to keep detection deterministic.
type symbols struct {
	classes    []string
	functions  []string
	methods    []string
	decorators []string
	imports    []string
}

func (s *symbols) empty() bool {
	return len(s.classes) == 0 && len(s.functions) == 0 && len(s.methods) == 0 &&
		len(s.decorators) == 0 && len(s.imports) == 0
}

func classify(lines []string) symbols {
	var s symbols
	for _, line := range lines {
		if m := classDefRe.FindStringSubmatch(line); m != nil {
			s.classes = append(s.classes, m[2])
			continue
		}
		if m := funcDefRe.FindStringSubmatch(line); m != nil {
			if len(m[1]) == 0 {
				s.functions = append(s.functions, m[2])
			} else {
				s.methods = append(s.methods, m[2])
			}
			continue
		}
		if m := decoratorRe.FindStringSubmatch(line); m != nil {
			s.decorators = append(s.decorators, m[1])
			continue
		}
		if importRe.MatchString(line) {
			s.imports = append(s.imports, line)
		}
	}
	return s
}

// Analyze walks every hunk of the patch and returns the detected
// operations in file and hunk order, with add/delete pairs of the same
// category already folded into rename operations at reduced confidence.
func Analyze(p *patch.Patch) []Operation {
	var ops []Operation
	for i := range p.Files {
		ops = append(ops, analyzeFile(&p.Files[i])...)
	}
	return ops
}

// OptimalOperations returns Analyze's output deduplicated and ordered
// for code generation: highest confidence first, then semantically
// richer kinds, then file path.
func OptimalOperations(p *patch.Patch) []Operation {
	ops := dedupe(Analyze(p))
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Confidence != ops[j].Confidence {
			return ops[i].Confidence > ops[j].Confidence
		}
		if pi, pj := ops[i].Kind.priority(), ops[j].Kind.priority(); pi != pj {
			return pi < pj
		}
		return ops[i].FilePath < ops[j].FilePath
	})
	return ops
}

func analyzeFile(f *patch.FilePatch) []Operation {
	path := f.Path()
	var ops []Operation
	for hi := range f.Hunks {
		ops = append(ops, analyzeHunk(path, hi, &f.Hunks[hi])...)
	}
	ops = pairRenames(ops)

	switch {
	case f.IsRenamed:
		ops = append(ops, Operation{
			Kind:       OpFileRename,
			FilePath:   path,
			Details:    map[string]string{"old_path": f.OldPath, "new_path": f.NewPath},
			HunkIndex:  -1,
			Confidence: ConfidenceObserved,
		})
	case f.IsNew:
		ops = append(ops, Operation{
			Kind:       OpFileCreate,
			FilePath:   path,
			Details:    map[string]string{"path": path},
			HunkIndex:  -1,
			Confidence: ConfidenceObserved,
		})
	case f.IsDeleted:
		ops = append(ops, Operation{
			Kind:       OpFileDelete,
			FilePath:   path,
			Details:    map[string]string{"path": path},
			HunkIndex:  -1,
			Confidence: ConfidenceObserved,
		})
	}
	return ops
}

func analyzeHunk(path string, hunkIndex int, h *patch.Hunk) []Operation {
	var deleted, added []string
	for _, c := range h.Changes {
		switch c.Kind {
		case patch.Delete:
			deleted = append(deleted, c.Content)
		case patch.Add:
			added = append(added, c.Content)
		}
	}

	before := classify(deleted)
	after := classify(added)
	if before.empty() && after.empty() {
		return genericOps(path, hunkIndex, h, deleted, added)
	}

	className := enclosingClass(h.FunctionContext)
	mk := func(kind OpKind, details map[string]string) Operation {
		return Operation{Kind: kind, FilePath: path, Details: details, HunkIndex: hunkIndex, Confidence: ConfidenceObserved}
	}

	var ops []Operation
	// Deletions first so rename pairing can search forward for the
	// matching addition.
	for _, n := range subtract(before.classes, after.classes) {
		ops = append(ops, mk(OpClassDelete, map[string]string{"name": n}))
	}
	for _, n := range subtract(before.functions, after.functions) {
		ops = append(ops, mk(OpFunctionDelete, map[string]string{"name": n}))
	}
	for _, n := range subtract(before.methods, after.methods) {
		ops = append(ops, mk(OpMethodDelete, map[string]string{"name": n, "class_name": className}))
	}
	for _, n := range subtract(before.decorators, after.decorators) {
		ops = append(ops, mk(OpDecoratorRemove, map[string]string{"name": n}))
	}
	for _, n := range subtract(before.imports, after.imports) {
		ops = append(ops, mk(OpImportRemove, map[string]string{"statement": n}))
	}

	for _, n := range subtract(after.classes, before.classes) {
		ops = append(ops, mk(OpClassAdd, map[string]string{"name": n}))
	}
	for _, n := range subtract(after.functions, before.functions) {
		ops = append(ops, mk(OpFunctionAdd, map[string]string{"name": n}))
	}
	for _, n := range subtract(after.methods, before.methods) {
		ops = append(ops, mk(OpMethodAdd, map[string]string{"name": n, "class_name": className}))
	}
	for _, n := range subtract(after.decorators, before.decorators) {
		ops = append(ops, mk(OpDecoratorAdd, map[string]string{"name": n}))
	}
	for _, n := range subtract(after.imports, before.imports) {
		ops = append(ops, mk(OpImportAdd, map[string]string{"statement": n}))
	}
	return ops
}

// genericOps emits the literal line-level fallback for a hunk with no
// structural signal: a rewrite, insert or delete over the 1-based span.
func genericOps(path string, hunkIndex int, h *patch.Hunk, deleted, added []string) []Operation {
	if len(deleted) == 0 && len(added) == 0 {
		return nil
	}

	op := Operation{FilePath: path, HunkIndex: hunkIndex, Confidence: ConfidenceObserved}
	switch {
	case len(deleted) > 0 && len(added) > 0:
		op.Kind = OpLineRewrite
		op.Details = map[string]string{
			"old_text":   strings.Join(deleted, "\n"),
			"new_text":   strings.Join(added, "\n"),
			"start_line": strconv.Itoa(firstOldLine(h)),
			"end_line":   strconv.Itoa(lastOldLine(h)),
		}
	case len(added) > 0:
		op.Kind = OpLineInsert
		op.Details = map[string]string{
			"text":       strings.Join(added, "\n"),
			"start_line": strconv.Itoa(firstNewLine(h)),
			"end_line":   strconv.Itoa(lastNewLine(h)),
		}
	default:
		op.Kind = OpLineDelete
		op.Details = map[string]string{
			"text":       strings.Join(deleted, "\n"),
			"start_line": strconv.Itoa(firstOldLine(h)),
			"end_line":   strconv.Itoa(lastOldLine(h)),
		}
	}
	return []Operation{op}
}

// pairRenames folds unmatched delete+add pairs of the same category into
// a single rename at reduced confidence. The scan is an explicit
// first-match strategy: for each delete, the first not-yet-consumed
// addition of the same category later in the list wins. No similarity
// scoring is attempted, so a same-category delete and add in unrelated
// places pair up anyway; the 0.8 confidence is the honest signal.
func pairRenames(ops []Operation) []Operation {
	renameKind := map[OpKind]OpKind{
		OpClassDelete:    OpClassRename,
		OpFunctionDelete: OpFunctionRename,
		OpMethodDelete:   OpMethodRename,
	}
	addKind := map[OpKind]OpKind{
		OpClassDelete:    OpClassAdd,
		OpFunctionDelete: OpFunctionAdd,
		OpMethodDelete:   OpMethodAdd,
	}

	consumed := make([]bool, len(ops))
	var out []Operation
	for i := range ops {
		if consumed[i] {
			continue
		}
		del := ops[i]
		rk, isDelete := renameKind[del.Kind]
		if !isDelete {
			out = append(out, del)
			continue
		}

		matched := false
		for j := i + 1; j < len(ops); j++ {
			add := ops[j]
			if consumed[j] || add.Kind != addKind[del.Kind] || add.FilePath != del.FilePath {
				continue
			}
			if del.Kind == OpMethodDelete && add.Details["class_name"] != del.Details["class_name"] {
				continue
			}
			details := map[string]string{
				"old_name": del.Details["name"],
				"new_name": add.Details["name"],
			}
			if del.Kind == OpMethodDelete {
				details["class_name"] = del.Details["class_name"]
			}
			out = append(out, Operation{
				Kind:       rk,
				FilePath:   del.FilePath,
				Details:    details,
				HunkIndex:  del.HunkIndex,
				Confidence: ConfidenceInferred,
			})
			consumed[j] = true
			matched = true
			break
		}
		if !matched {
			out = append(out, del)
		}
	}
	return out
}

// enclosingClass pulls a class name out of a hunk's function context
// line, e.g. "class Greeter:" or "class Greeter(Base):". A context that
// names anything else yields "".
func enclosingClass(functionContext string) string {
	if m := classDefRe.FindStringSubmatch(functionContext); m != nil {
		return m[2]
	}
	return ""
}

// subtract returns the members of a that do not appear in b, preserving
// order. Names on both sides are unchanged code (reformats, moves) and
// produce no operation.
func subtract(a, b []string) []string {
	var out []string
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			out = append(out, x)
		}
	}
	return out
}

func dedupe(ops []Operation) []Operation {
	seen := make(map[string]bool)
	var out []Operation
	for _, op := range ops {
		k := opKey(&op)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, op)
	}
	return out
}

func opKey(op *Operation) string {
	keys := make([]string, 0, len(op.Details))
	for k := range op.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(op.Kind.String())
	b.WriteByte('|')
	b.WriteString(op.FilePath)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(op.Details[k])
	}
	return b.String()
}

func firstOldLine(h *patch.Hunk) int {
	for _, c := range h.Changes {
		if c.Kind == patch.Delete {
			return c.OldLine
		}
	}
	return h.OldStart
}

func lastOldLine(h *patch.Hunk) int {
	line := h.OldStart
	for _, c := range h.Changes {
		if c.Kind == patch.Delete {
			line = c.OldLine
		}
	}
	return line
}

func firstNewLine(h *patch.Hunk) int {
	for _, c := range h.Changes {
		if c.Kind == patch.Add {
			return c.NewLine
		}
	}
	return h.NewStart
}

func lastNewLine(h *patch.Hunk) int {
	line := h.NewStart
	for _, c := range h.Changes {
		if c.Kind == patch.Add {
			line = c.NewLine
		}
	}
	return line
}
