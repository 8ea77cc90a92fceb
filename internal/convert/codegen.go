package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rejig-dev/rejig/internal/analyze"
	"github.com/rejig-dev/rejig/internal/patch"
)

// Mode selects the codegen strategy.
type Mode int

const (
	// ModeSmart generates one fluent call per detected semantic
	// operation, preferring renames over delete+add pairs.
	ModeSmart Mode = iota
	// ModeLiteral generates line-level calls straight from the hunks,
	// with no semantic inference.
	ModeLiteral
)

func (m Mode) String() string {
	if m == ModeLiteral {
		return "literal"
	}
	return "smart"
}

// ParseMode maps a CLI flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "smart", "":
		return ModeSmart, nil
	case "literal":
		return ModeLiteral, nil
	default:
		return ModeSmart, fmt.Errorf("unknown mode %q (want smart or literal)", s)
	}
}

// step is one generated edit: either a runnable fluent call or a
// comment placeholder for operations a single call cannot express.
type step struct {
	code    string
	comment bool
	desc    string
}

// GenerateCode renders the patch as a sequence of rejig Python calls,
// one per line, against a `proj` project object.
func GenerateCode(p *patch.Patch, mode Mode) string {
	var b strings.Builder
	for _, s := range steps(p, mode) {
		if s.comment {
			b.WriteString("# " + s.code + "\n")
		} else {
			b.WriteString(s.code + "\n")
		}
	}
	return b.String()
}

func steps(p *patch.Patch, mode Mode) []step {
	if mode == ModeLiteral {
		return literalSteps(p)
	}
	return smartSteps(p)
}

func smartSteps(p *patch.Patch) []step {
	var out []step
	for _, op := range analyze.OptimalOperations(p) {
		out = append(out, smartStep(p, &op))
	}
	return out
}

func smartStep(p *patch.Patch, op *analyze.Operation) step {
	file := fmt.Sprintf("proj.file(%s)", pyStr(op.FilePath))
	d := op.Details

	switch op.Kind {
	case analyze.OpClassRename:
		return call(fmt.Sprintf("%s.class_(%s).rename(%s)", file, pyStr(d["old_name"]), pyStr(d["new_name"])),
			fmt.Sprintf("rename class %s to %s in %s", d["old_name"], d["new_name"], op.FilePath))
	case analyze.OpFunctionRename:
		return call(fmt.Sprintf("%s.func(%s).rename(%s)", file, pyStr(d["old_name"]), pyStr(d["new_name"])),
			fmt.Sprintf("rename function %s to %s in %s", d["old_name"], d["new_name"], op.FilePath))
	case analyze.OpMethodRename:
		return call(fmt.Sprintf("%s.class_(%s).method(%s).rename(%s)", file, pyStr(d["class_name"]), pyStr(d["old_name"]), pyStr(d["new_name"])),
			fmt.Sprintf("rename method %s.%s to %s in %s", d["class_name"], d["old_name"], d["new_name"], op.FilePath))

	case analyze.OpClassDelete:
		return call(fmt.Sprintf("%s.class_(%s).remove()", file, pyStr(d["name"])),
			fmt.Sprintf("remove class %s from %s", d["name"], op.FilePath))
	case analyze.OpFunctionDelete:
		return call(fmt.Sprintf("%s.func(%s).remove()", file, pyStr(d["name"])),
			fmt.Sprintf("remove function %s from %s", d["name"], op.FilePath))
	case analyze.OpMethodDelete:
		return call(fmt.Sprintf("%s.class_(%s).method(%s).remove()", file, pyStr(d["class_name"]), pyStr(d["name"])),
			fmt.Sprintf("remove method %s.%s from %s", d["class_name"], d["name"], op.FilePath))

	// A diff only shows the changed lines, so a freshly added class or
	// function rarely arrives with a complete body. These become
	// placeholders rather than calls that would half-build a symbol.
	case analyze.OpClassAdd:
		return placeholder(fmt.Sprintf("add class %s to %s (body not recoverable from diff)", d["name"], op.FilePath))
	case analyze.OpFunctionAdd:
		return placeholder(fmt.Sprintf("add function %s to %s (body not recoverable from diff)", d["name"], op.FilePath))
	case analyze.OpMethodAdd:
		return placeholder(fmt.Sprintf("add method %s.%s to %s (body not recoverable from diff)", d["class_name"], d["name"], op.FilePath))

	case analyze.OpDecoratorAdd:
		return call(fmt.Sprintf("%s.add_decorator(%s)", file, pyStr(d["name"])),
			fmt.Sprintf("add decorator @%s in %s", d["name"], op.FilePath))
	case analyze.OpDecoratorRemove:
		return call(fmt.Sprintf("%s.remove_decorator(%s)", file, pyStr(d["name"])),
			fmt.Sprintf("remove decorator @%s in %s", d["name"], op.FilePath))

	case analyze.OpImportAdd:
		return call(fmt.Sprintf("%s.add_import(%s)", file, pyStr(d["statement"])),
			fmt.Sprintf("add import to %s", op.FilePath))
	case analyze.OpImportRemove:
		return call(fmt.Sprintf("%s.remove_import(%s)", file, pyStr(d["statement"])),
			fmt.Sprintf("remove import from %s", op.FilePath))

	case analyze.OpLineRewrite:
		return call(fmt.Sprintf("%s.replace_lines(%s, %s, %s)", file, d["start_line"], d["end_line"], pyStr(d["new_text"])),
			fmt.Sprintf("rewrite lines %s-%s in %s", d["start_line"], d["end_line"], op.FilePath))
	case analyze.OpLineInsert:
		return call(fmt.Sprintf("%s.insert_lines(%s, %s)", file, d["start_line"], pyStr(d["text"])),
			fmt.Sprintf("insert lines at %s in %s", d["start_line"], op.FilePath))
	case analyze.OpLineDelete:
		return call(fmt.Sprintf("%s.delete_lines(%s, %s)", file, d["start_line"], d["end_line"]),
			fmt.Sprintf("delete lines %s-%s in %s", d["start_line"], d["end_line"], op.FilePath))

	case analyze.OpFileCreate:
		content := ""
		if f := p.File(op.FilePath); f != nil {
			content = NewFileContent(f)
		}
		return call(fmt.Sprintf("proj.create_file(%s, %s)", pyStr(op.FilePath), pyStr(content)),
			fmt.Sprintf("create %s", op.FilePath))
	case analyze.OpFileDelete:
		return call(fmt.Sprintf("proj.delete_file(%s)", pyStr(op.FilePath)),
			fmt.Sprintf("delete %s", op.FilePath))
	case analyze.OpFileRename:
		return call(fmt.Sprintf("proj.rename_file(%s, %s)", pyStr(d["old_path"]), pyStr(d["new_path"])),
			fmt.Sprintf("rename %s to %s", d["old_path"], d["new_path"]))
	}
	return placeholder("unrecognized operation " + op.Kind.String())
}

// literalSteps replays the hunks verbatim: each hunk becomes one
// replace/insert/delete over its recorded old-file span.
func literalSteps(p *patch.Patch) []step {
	var out []step
	for i := range p.Files {
		f := &p.Files[i]
		path := f.Path()
		file := fmt.Sprintf("proj.file(%s)", pyStr(path))

		switch {
		case f.IsBinary:
			out = append(out, placeholder(fmt.Sprintf("binary change to %s not representable", path)))
			continue
		case f.IsNew:
			out = append(out, call(
				fmt.Sprintf("proj.create_file(%s, %s)", pyStr(path), pyStr(NewFileContent(f))),
				fmt.Sprintf("create %s", path)))
			continue
		case f.IsDeleted:
			out = append(out, call(
				fmt.Sprintf("proj.delete_file(%s)", pyStr(path)),
				fmt.Sprintf("delete %s", path)))
			continue
		}

		for hi := range f.Hunks {
			h := &f.Hunks[hi]
			start := strconv.Itoa(h.OldStart)
			end := strconv.Itoa(h.OldStart + h.OldCount - 1)
			text := pyStr(strings.Join(h.NewLines(), "\n"))

			switch {
			case h.OldCount == 0:
				out = append(out, call(
					fmt.Sprintf("%s.insert_lines(%d, %s)", file, h.OldStart+1, text),
					fmt.Sprintf("insert after line %d in %s", h.OldStart, path)))
			case h.NewCount == 0:
				out = append(out, call(
					fmt.Sprintf("%s.delete_lines(%s, %s)", file, start, end),
					fmt.Sprintf("delete lines %s-%s in %s", start, end, path)))
			default:
				out = append(out, call(
					fmt.Sprintf("%s.replace_lines(%s, %s, %s)", file, start, end, text),
					fmt.Sprintf("replace lines %s-%s in %s", start, end, path)))
			}
		}

		if f.IsRenamed {
			out = append(out, call(
				fmt.Sprintf("proj.rename_file(%s, %s)", pyStr(f.OldPath), pyStr(f.NewPath)),
				fmt.Sprintf("rename %s to %s", f.OldPath, f.NewPath)))
		}
	}
	return out
}

func call(code, desc string) step {
	return step{code: code, desc: desc}
}

func placeholder(text string) step {
	return step{code: text, comment: true, desc: text}
}

// pyStr renders s as a double-quoted Python string literal. Newlines
// are escaped rather than emitted, so the literal always stays on one
// line of generated code.
func pyStr(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
