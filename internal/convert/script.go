package convert

import (
	"fmt"
	"strings"

	"github.com/rejig-dev/rejig/internal/patch"
)

// GenerateScript wraps the generated calls in a complete runnable
// Python program: shebang, summary docstring, imports, a main that
// counts successes and failures, and the __main__ guard. A failed step
// is reported and later steps still run.
func GenerateScript(p *patch.Patch, mode Mode) string {
	all := steps(p, mode)

	var b strings.Builder
	b.WriteString("#!/usr/bin/env python3\n")
	b.WriteString("\"\"\"Apply recorded edits with rejig.\n\n")
	fmt.Fprintf(&b, "Files changed: %d (+%d/-%d lines).\n", len(p.Files), p.Additions(), p.Deletions())
	b.WriteString("Generated from a diff; review before running.\n")
	b.WriteString("\"\"\"\n\n")
	b.WriteString("import sys\n\n")
	b.WriteString("from rejig import Project\n\n\n")

	b.WriteString("def main() -> int:\n")
	b.WriteString("    proj = Project(\".\")\n")
	b.WriteString("    succeeded = 0\n")
	b.WriteString("    failed = 0\n\n")

	n := 0
	for _, s := range all {
		if s.comment {
			b.WriteString("    # " + s.code + "\n\n")
			continue
		}
		n++
		fmt.Fprintf(&b, "    # step %d: %s\n", n, s.desc)
		b.WriteString("    try:\n")
		b.WriteString("        " + s.code + "\n")
		b.WriteString("        succeeded += 1\n")
		b.WriteString("    except Exception as exc:\n")
		fmt.Fprintf(&b, "        print(\"step %d failed: {}\".format(exc), file=sys.stderr)\n", n)
		b.WriteString("        failed += 1\n\n")
	}
	if n == 0 {
		b.WriteString("    # nothing to do\n\n")
	}

	b.WriteString("    print(\"{} succeeded, {} failed\".format(succeeded, failed))\n")
	b.WriteString("    return 1 if failed else 0\n\n\n")
	b.WriteString("if __name__ == \"__main__\":\n")
	b.WriteString("    sys.exit(main())\n")
	return b.String()
}
