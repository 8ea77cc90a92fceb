package convert

import (
	"strings"
	"testing"

	"github.com/rejig-dev/rejig/internal/patch"
)

const renameDiff = `--- a/util.py
+++ b/util.py
@@ -1,9 +1,9 @@
 import os


-def old_name(path):
+def new_name(path):
     return os.path.basename(path)


 def caller(p):
-    return old_name(p)
+    return new_name(p)
`

func TestGenerateCodeSmartRename(t *testing.T) {
	p := patch.Parse(renameDiff)
	code := GenerateCode(p, ModeSmart)

	want := `proj.file("util.py").func("old_name").rename("new_name")`
	if !strings.Contains(code, want) {
		t.Errorf("generated code missing %q:\n%s", want, code)
	}
	if strings.Contains(code, "func(\"caller\")") {
		t.Errorf("unchanged function leaked into generated code:\n%s", code)
	}
}

func TestGenerateCodeSmartPlaceholderForAddedFunction(t *testing.T) {
	p := patch.Parse(`--- a/mod.py
+++ b/mod.py
@@ -1,2 +1,6 @@
 import os

+
+def helper(x):
+    return x + 1
+
`)
	code := GenerateCode(p, ModeSmart)

	if !strings.Contains(code, "# add function helper to mod.py") {
		t.Errorf("expected placeholder comment for added function:\n%s", code)
	}
	if strings.Contains(code, `func("helper").rename`) {
		t.Errorf("added function generated a rename:\n%s", code)
	}
}

func TestGenerateCodeSmartMethodRename(t *testing.T) {
	p := patch.Parse(`--- a/shapes.py
+++ b/shapes.py
@@ -10,2 +10,2 @@ class Circle:
-    def area(self):
+    def surface(self):
         return 3.14 * self.r ** 2
`)
	code := GenerateCode(p, ModeSmart)

	want := `proj.file("shapes.py").class_("Circle").method("area").rename("surface")`
	if !strings.Contains(code, want) {
		t.Errorf("generated code missing %q:\n%s", want, code)
	}
}

func TestGenerateCodeSmartFileOperations(t *testing.T) {
	p := patch.Parse(`diff --git a/old.py b/renamed.py
similarity index 100%
rename from old.py
rename to renamed.py
diff --git a/dead.py b/dead.py
deleted file mode 100644
--- a/dead.py
+++ /dev/null
@@ -1,1 +0,0 @@
-x = 1
`)
	code := GenerateCode(p, ModeSmart)

	if want := `proj.rename_file("old.py", "renamed.py")`; !strings.Contains(code, want) {
		t.Errorf("missing %q:\n%s", want, code)
	}
	if want := `proj.delete_file("dead.py")`; !strings.Contains(code, want) {
		t.Errorf("missing %q:\n%s", want, code)
	}
}

func TestGenerateCodeLiteral(t *testing.T) {
	p := patch.Parse(renameDiff)
	code := GenerateCode(p, ModeLiteral)

	if !strings.Contains(code, `proj.file("util.py").replace_lines(1, 9, `) {
		t.Errorf("literal mode missing replace_lines call:\n%s", code)
	}
	if strings.Contains(code, "rename(") {
		t.Errorf("literal mode performed semantic inference:\n%s", code)
	}
}

func TestGenerateCodeLiteralCreateCarriesContent(t *testing.T) {
	p := patch.Parse(`--- /dev/null
+++ b/fresh.py
@@ -0,0 +1,2 @@
+a = 1
+b = 2
`)
	code := GenerateCode(p, ModeLiteral)

	want := `proj.create_file("fresh.py", "a = 1\nb = 2\n")`
	if !strings.Contains(code, want) {
		t.Errorf("missing %q:\n%s", want, code)
	}
}

func TestGenerateCodeEmptyPatch(t *testing.T) {
	if code := GenerateCode(patch.Parse(""), ModeSmart); code != "" {
		t.Errorf("empty patch generated code:\n%s", code)
	}
}

func TestGenerateScriptShape(t *testing.T) {
	p := patch.Parse(renameDiff)
	script := GenerateScript(p, ModeSmart)

	for _, want := range []string{
		"#!/usr/bin/env python3",
		"Files changed: 1 (+2/-2 lines).",
		"import sys",
		"from rejig import Project",
		"def main() -> int:",
		`proj = Project(".")`,
		`proj.file("util.py").func("old_name").rename("new_name")`,
		"except Exception as exc:",
		`print("{} succeeded, {} failed".format(succeeded, failed))`,
		`if __name__ == "__main__":`,
		"sys.exit(main())",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestGenerateScriptEmptyPatch(t *testing.T) {
	script := GenerateScript(patch.Parse(""), ModeSmart)
	if !strings.Contains(script, "# nothing to do") {
		t.Errorf("empty-patch script missing no-op marker:\n%s", script)
	}
	if !strings.Contains(script, "sys.exit(main())") {
		t.Errorf("empty-patch script is not runnable:\n%s", script)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"smart", ModeSmart, false},
		{"literal", ModeLiteral, false},
		{"", ModeSmart, false},
		{"clever", ModeSmart, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// End to end: diff text in, renamed source out, with the smart codegen
// agreeing on the same rename.
func TestFunctionRenameEndToEnd(t *testing.T) {
	original := "import os\n\n\ndef old_name(path):\n    return os.path.basename(path)\n\n\ndef caller(p):\n    return old_name(p)\n"
	p := patch.Parse(renameDiff)

	fs := newMemFS(map[string]string{"util.py": original})
	res := Apply(p, fs, ApplyOptions{})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}

	got := fs.files["util.py"]
	if strings.Contains(got, "old_name") {
		t.Errorf("old name survives after apply:\n%s", got)
	}
	if !strings.Contains(got, "def new_name(path):") || !strings.Contains(got, "return new_name(p)") {
		t.Errorf("rename not applied:\n%s", got)
	}

	code := GenerateCode(p, ModeSmart)
	if !strings.Contains(code, `.func("old_name").rename("new_name")`) {
		t.Errorf("codegen disagrees with apply:\n%s", code)
	}
}
