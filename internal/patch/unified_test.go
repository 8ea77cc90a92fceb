package patch

import (
	"reflect"
	"strings"
	"testing"
)

// TestUnifiedDiffRoundTrip checks the printer against the parser: any
// patch built from valid input must survive print-then-parse with the
// same files, flags, hunk headers and ordered changes.
func TestUnifiedDiffRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"unified":    sampleUnified,
		"extended":   sampleExtended,
		"mixed new and deleted": `diff --git a/created.py b/created.py
new file mode 100644
--- /dev/null
+++ b/created.py
@@ -0,0 +1,2 @@
+import os
+print(os.name)
diff --git a/removed.py b/removed.py
deleted file mode 100755
--- a/removed.py
+++ /dev/null
@@ -1,1 +0,0 @@
-print("bye")
`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			p := Parse(input)
			reparsed := Parse(p.UnifiedDiff())
			if !reflect.DeepEqual(p, reparsed) {
				t.Errorf("round trip changed the patch\nfirst:  %+v\nsecond: %+v\ntext:\n%s", p, reparsed, p.UnifiedDiff())
			}
		})
	}
}

func TestUnifiedDiffText(t *testing.T) {
	p := Parse(sampleUnified)
	out := p.UnifiedDiff()

	wantLines := []string{
		"--- a/module.py",
		"+++ b/module.py",
		"@@ -10,6 +10,6 @@ class Greeter:",
		"-def old_name(x):",
		"+def new_name(x):",
	}
	for _, w := range wantLines {
		if !strings.Contains(out, w+"\n") {
			t.Errorf("UnifiedDiff() missing line %q in:\n%s", w, out)
		}
	}
}

func TestUnifiedDiffOmitsSingleCounts(t *testing.T) {
	p := Parse(`--- a/a.py
+++ b/a.py
@@ -5 +5 @@
-x = 1
+x = 2
`)
	out := p.UnifiedDiff()
	if !strings.Contains(out, "@@ -5 +5 @@\n") {
		t.Errorf("UnifiedDiff() = %q, want count-free header for single-line ranges", out)
	}
}

func TestUnifiedDiffEmptyPatch(t *testing.T) {
	p := Parse("")
	if out := p.UnifiedDiff(); out != "" {
		t.Errorf("UnifiedDiff() = %q, want empty", out)
	}
}

func TestUnifiedDiffRenameHeaders(t *testing.T) {
	p := Parse(sampleExtended)
	out := p.UnifiedDiff()

	for _, w := range []string{
		"diff --git a/old_name.py b/new_name.py",
		"similarity index 96%",
		"rename from old_name.py",
		"rename to new_name.py",
		"Binary files a/assets/logo.png and b/assets/logo.png differ",
	} {
		if !strings.Contains(out, w+"\n") {
			t.Errorf("UnifiedDiff() missing %q in:\n%s", w, out)
		}
	}
}
