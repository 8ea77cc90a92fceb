package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/rejig-dev/rejig/internal/patch"
)

// memFS is an in-memory FileSystem for exercising apply without disk.
type memFS struct {
	files map[string]string
}

func newMemFS(files map[string]string) *memFS {
	if files == nil {
		files = make(map[string]string)
	}
	return &memFS{files: files}
}

func (m *memFS) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *memFS) ReadFile(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", errors.New("no such file: " + path)
	}
	return content, nil
}

func (m *memFS) WriteFile(path, content string) error {
	m.files[path] = content
	return nil
}

func (m *memFS) Remove(path string) error {
	if _, ok := m.files[path]; !ok {
		return errors.New("no such file: " + path)
	}
	delete(m.files, path)
	return nil
}

func mkChange(kind patch.ChangeKind, content string) patch.Change {
	return patch.Change{Kind: kind, Content: content}
}

func mkHunk(oldStart, oldCount, newStart, newCount int, changes ...patch.Change) patch.Hunk {
	return patch.Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Changes:  changes,
	}
}

func TestApplyHunksReplacesRange(t *testing.T) {
	old := "a\nb\nc\nd\n"
	h := mkHunk(2, 2, 2, 2,
		mkChange(patch.Delete, "b"),
		mkChange(patch.Add, "B"),
		mkChange(patch.Context, "c"),
	)

	got, err := ApplyHunks(old, []patch.Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if want := "a\nB\nc\nd\n"; got != want {
		t.Errorf("ApplyHunks = %q, want %q", got, want)
	}
}

// Later hunks are spliced first so every hunk's recorded position is
// still valid in the content it sees.
func TestApplyHunksReverseOrder(t *testing.T) {
	old := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\n"
	hunks := []patch.Hunk{
		// Replaces line 2 with two lines, shifting everything below.
		mkHunk(2, 1, 2, 2,
			mkChange(patch.Delete, "l2"),
			mkChange(patch.Add, "l2a"),
			mkChange(patch.Add, "l2b"),
		),
		// Still addressed by original line numbers.
		mkHunk(6, 2, 7, 1,
			mkChange(patch.Delete, "l6"),
			mkChange(patch.Delete, "l7"),
			mkChange(patch.Add, "l6+l7"),
		),
	}

	got, err := ApplyHunks(old, hunks)
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if want := "l1\nl2a\nl2b\nl3\nl4\nl5\nl6+l7\nl8\n"; got != want {
		t.Errorf("ApplyHunks = %q, want %q", got, want)
	}
}

func TestApplyHunksInsertion(t *testing.T) {
	old := "a\nb\n"
	h := mkHunk(1, 0, 2, 1, mkChange(patch.Add, "inserted"))

	got, err := ApplyHunks(old, []patch.Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if want := "a\ninserted\nb\n"; got != want {
		t.Errorf("ApplyHunks = %q, want %q", got, want)
	}
}

func TestApplyHunksVerifiesOldLines(t *testing.T) {
	old := "a\nCHANGED\nc\n"
	h := mkHunk(2, 1, 2, 1,
		mkChange(patch.Delete, "b"),
		mkChange(patch.Add, "B"),
	)

	_, err := ApplyHunks(old, []patch.Hunk{h})
	if err == nil {
		t.Fatal("ApplyHunks succeeded on mismatched content, want error")
	}
	if !strings.Contains(err.Error(), "mismatch") {
		t.Errorf("error = %v, want mismatch", err)
	}
}

func TestApplyHunksRangeOutsideFile(t *testing.T) {
	h := mkHunk(10, 2, 10, 2,
		mkChange(patch.Delete, "x"),
		mkChange(patch.Add, "y"),
	)
	if _, err := ApplyHunks("a\n", []patch.Hunk{h}); err == nil {
		t.Fatal("ApplyHunks succeeded on out-of-range hunk, want error")
	}
}

func TestApplyHunksPreservesMissingTrailingNewline(t *testing.T) {
	old := "a\nb"
	h := mkHunk(1, 1, 1, 1,
		mkChange(patch.Delete, "a"),
		mkChange(patch.Add, "A"),
	)

	got, err := ApplyHunks(old, []patch.Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if want := "A\nb"; got != want {
		t.Errorf("ApplyHunks = %q, want %q", got, want)
	}
}

// Emptying a file and applying the reverse must restore the original
// bytes, including the final newline.
func TestApplyHunksEmptiedFileRoundTrip(t *testing.T) {
	original := "a\n"
	del := mkHunk(1, 1, 0, 0, mkChange(patch.Delete, "a"))

	emptied, err := ApplyHunks(original, []patch.Hunk{del})
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if emptied != "" {
		t.Fatalf("emptied content = %q, want empty", emptied)
	}

	restored, err := ApplyHunks(emptied, []patch.Hunk{del.Reverse()})
	if err != nil {
		t.Fatalf("reverse ApplyHunks: %v", err)
	}
	if restored != original {
		t.Errorf("round trip = %q, want %q", restored, original)
	}
}

func TestApplyHunksInsertIntoEmptyFile(t *testing.T) {
	h := mkHunk(0, 0, 1, 2,
		mkChange(patch.Add, "a"),
		mkChange(patch.Add, "b"),
	)
	got, err := ApplyHunks("", []patch.Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if want := "a\nb\n"; got != want {
		t.Errorf("ApplyHunks = %q, want %q", got, want)
	}
}

func TestApplyHunksEmptyPatchIsNoop(t *testing.T) {
	got, err := ApplyHunks("a\nb\n", nil)
	if err != nil {
		t.Fatalf("ApplyHunks: %v", err)
	}
	if got != "a\nb\n" {
		t.Errorf("ApplyHunks = %q, want input unchanged", got)
	}
}

func TestApplyCreateAndExistingFile(t *testing.T) {
	p := patch.Parse(`--- /dev/null
+++ b/newmod.py
@@ -0,0 +1,2 @@
+import os
+print(os.sep)
`)

	fs := newMemFS(nil)
	res := Apply(p, fs, ApplyOptions{})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}
	if got := fs.files["newmod.py"]; got != "import os\nprint(os.sep)\n" {
		t.Errorf("created content = %q", got)
	}

	// A second application must refuse to clobber the file.
	res = Apply(p, fs, ApplyOptions{})
	if res.OK() {
		t.Fatal("Apply over existing file succeeded, want failure")
	}
	if res.Files[0].Err != "file already exists" {
		t.Errorf("Err = %q", res.Files[0].Err)
	}

	// Except in a dry run, which reports the would-be creation.
	res = Apply(p, fs, ApplyOptions{DryRun: true})
	if !res.OK() {
		t.Fatalf("dry-run Apply failed: %+v", res.Files)
	}
}

func TestApplyDeleteFile(t *testing.T) {
	p := patch.Parse(`--- a/gone.py
+++ /dev/null
@@ -1,1 +0,0 @@
-x = 1
`)

	fs := newMemFS(map[string]string{"gone.py": "x = 1\n"})
	res := Apply(p, fs, ApplyOptions{})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}
	if fs.Exists("gone.py") {
		t.Error("file still exists after delete")
	}
}

func TestApplyMissingFileFailsButBatchContinues(t *testing.T) {
	p := patch.Parse(`--- a/missing.py
+++ b/missing.py
@@ -1,1 +1,1 @@
-old
+new
--- a/present.py
+++ b/present.py
@@ -1,1 +1,1 @@
-old
+new
`)

	fs := newMemFS(map[string]string{"present.py": "old\n"})
	res := Apply(p, fs, ApplyOptions{})
	if res.OK() {
		t.Fatal("Apply reported OK with a missing file")
	}
	if len(res.Files) != 2 {
		t.Fatalf("got %d file results, want 2", len(res.Files))
	}
	if res.Files[0].OK {
		t.Error("missing file reported OK")
	}
	if !res.Files[1].OK {
		t.Errorf("present file failed: %s", res.Files[1].Err)
	}
	if got := fs.files["present.py"]; got != "new\n" {
		t.Errorf("present.py = %q, want %q", got, "new\n")
	}
	if changed := res.Changed(); len(changed) != 1 || changed[0] != "present.py" {
		t.Errorf("Changed = %v", changed)
	}
}

func TestApplyRenameMovesContent(t *testing.T) {
	p := patch.Parse(`diff --git a/old_name.py b/new_name.py
similarity index 95%
rename from old_name.py
rename to new_name.py
--- a/old_name.py
+++ b/new_name.py
@@ -1,2 +1,2 @@
-value = 1
+value = 2
 done = True
`)

	fs := newMemFS(map[string]string{"old_name.py": "value = 1\ndone = True\n"})
	res := Apply(p, fs, ApplyOptions{})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}
	if fs.Exists("old_name.py") {
		t.Error("old path still exists after rename")
	}
	if got := fs.files["new_name.py"]; got != "value = 2\ndone = True\n" {
		t.Errorf("new_name.py = %q", got)
	}
	if res.Files[0].Action != ActionRenamed {
		t.Errorf("Action = %q, want %q", res.Files[0].Action, ActionRenamed)
	}
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	p := patch.Parse(`--- a/mod.py
+++ b/mod.py
@@ -1,1 +1,1 @@
-old
+new
`)

	fs := newMemFS(map[string]string{"mod.py": "old\n"})
	res := Apply(p, fs, ApplyOptions{DryRun: true})
	if !res.OK() {
		t.Fatalf("dry-run Apply failed: %+v", res.Files)
	}
	if got := fs.files["mod.py"]; got != "old\n" {
		t.Errorf("dry run modified the file: %q", got)
	}
	diff := res.Files[0].Diff
	if !strings.Contains(diff, "-old") || !strings.Contains(diff, "+new") {
		t.Errorf("dry-run diff missing change lines:\n%s", diff)
	}
}

func TestApplyIgnoreFilterSkips(t *testing.T) {
	p := patch.Parse(`--- a/build/gen.py
+++ b/build/gen.py
@@ -1,1 +1,1 @@
-old
+new
`)

	fs := newMemFS(map[string]string{"build/gen.py": "old\n"})
	res := Apply(p, fs, ApplyOptions{
		Ignore: func(path string) bool { return strings.HasPrefix(path, "build/") },
	})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}
	if res.Files[0].Action != ActionSkipped {
		t.Errorf("Action = %q, want %q", res.Files[0].Action, ActionSkipped)
	}
	if got := fs.files["build/gen.py"]; got != "old\n" {
		t.Errorf("ignored file was modified: %q", got)
	}
	if len(res.Changed()) != 0 {
		t.Errorf("Changed = %v, want empty", res.Changed())
	}
}

func TestApplyVerifyRejectsContent(t *testing.T) {
	p := patch.Parse(`--- a/mod.py
+++ b/mod.py
@@ -1,1 +1,1 @@
-old
+new
`)

	fs := newMemFS(map[string]string{"mod.py": "old\n"})
	res := Apply(p, fs, ApplyOptions{
		Verify: func(path, content string) error { return errors.New("syntax error") },
	})
	if res.OK() {
		t.Fatal("Apply succeeded despite verification failure")
	}
	if got := fs.files["mod.py"]; got != "old\n" {
		t.Errorf("file written despite verification failure: %q", got)
	}
}

func TestApplyBinaryPatchFails(t *testing.T) {
	p := patch.Parse(`diff --git a/logo.png b/logo.png
Binary files a/logo.png and b/logo.png differ
`)

	fs := newMemFS(map[string]string{"logo.png": "\x89PNG"})
	res := Apply(p, fs, ApplyOptions{})
	if res.OK() {
		t.Fatal("binary patch applied, want failure")
	}
}

// Applying a patch and then its reverse must reproduce the original
// bytes exactly.
func TestApplyThenReverseApplyIsIdentity(t *testing.T) {
	original := "import os\n\n\ndef first(a):\n    return a\n\n\ndef second(b):\n    return b\n"
	p := patch.Parse(`--- a/mod.py
+++ b/mod.py
@@ -1,5 +1,6 @@
 import os
+import sys


 def first(a):
     return a
@@ -7,3 +8,3 @@

 def second(b):
-    return b
+    return b * 2
`)

	fs := newMemFS(map[string]string{"mod.py": original})
	if res := Apply(p, fs, ApplyOptions{}); !res.OK() {
		t.Fatalf("forward Apply failed: %+v", res.Files)
	}
	if fs.files["mod.py"] == original {
		t.Fatal("forward apply did not change the file")
	}
	if res := Apply(p.Reverse(), fs, ApplyOptions{}); !res.OK() {
		t.Fatalf("reverse Apply failed: %+v", res.Files)
	}
	if got := fs.files["mod.py"]; got != original {
		t.Errorf("round trip = %q, want original %q", got, original)
	}
}

func TestApplyEmptyPatchIsNoop(t *testing.T) {
	fs := newMemFS(map[string]string{"mod.py": "x\n"})
	res := Apply(patch.Parse(""), fs, ApplyOptions{})
	if !res.OK() {
		t.Fatalf("Apply failed: %+v", res.Files)
	}
	if len(res.Files) != 0 {
		t.Errorf("got %d file results, want 0", len(res.Files))
	}
	if got := fs.files["mod.py"]; got != "x\n" {
		t.Errorf("empty patch modified the file: %q", got)
	}
}
