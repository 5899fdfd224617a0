package system_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/parser"
	"github.com/robcxyz/tackle-box/cmd/tackle/providers/system"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

func mustContain(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			t.Fatalf("expected %q to contain %q", got, sub)
		}
	}
}

func run(t *testing.T, src string, opts parser.Options) (*tree.Map, error) {
	t.Helper()
	reg, err := hooks.NewRegistry(system.Provider{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	doc, err := tree.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return parser.Resolve(context.Background(), tree.FromPairs("tackle", doc), "tackle", reg, opts)
}

func mustRun(t *testing.T, src string, opts parser.Options) *tree.Map {
	t.Helper()
	out, err := run(t, src, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func get(t *testing.T, m *tree.Map, key string) any {
	t.Helper()
	v, ok := m.Get(key)
	if !ok {
		t.Fatalf("key %q missing from %v", key, m.Keys())
	}
	return v
}

func TestProvider_RegistersAllTypes(t *testing.T) {
	reg, err := hooks.NewRegistry(system.Provider{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"block", "chmod", "command", "confirm", "copy", "create_file", "echo", "host",
		"input", "listdir", "move", "pprint", "print", "remove", "select", "shred",
	}
	if diff := cmp.Diff(want, reg.Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	for _, name := range want {
		s, _ := reg.Get(name)
		if s.Description == "" {
			t.Errorf("%s has no description", name)
		}
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	out := mustRun(t, "name: world\np:\n  type: print\n  statement: hello {{ name }}\n", parser.Options{Stdout: &buf})

	if got := buf.String(); got != "hello world\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
	if get(t, out, "p") != "hello world" {
		t.Fatalf("unexpected value %v", get(t, out, "p"))
	}
}

func TestPrint_FallsBackToOut(t *testing.T) {
	var buf bytes.Buffer
	mustRun(t, "p:\n  type: print\n  out: fallback\n", parser.Options{Stdout: &buf})
	mustContain(t, buf.String(), "fallback")
}

func TestPprint_Structure(t *testing.T) {
	var buf bytes.Buffer
	mustRun(t, "m:\n  a: 1\n  b: two\np:\n  type: pprint\n  statement: \"{{ m }}\"\n", parser.Options{Stdout: &buf})
	mustContain(t, buf.String(), "a: 1", "b: two")
}

func TestEcho(t *testing.T) {
	out := mustRun(t, "e:\n  type: echo\n  value: [1, two]\n", parser.Options{})
	if diff := cmp.Diff([]any{1, "two"}, get(t, out, "e")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBlock_NestsAndSeesOuterScope(t *testing.T) {
	out := mustRun(t, `
greeting: hi
b:
  type: block
  items:
    first:
      type: echo
      value: "{{ greeting }}"
    second: "{{ first }} again"
`, parser.Options{})

	b, ok := get(t, out, "b").(*tree.Map)
	if !ok {
		t.Fatalf("block returned %T", get(t, out, "b"))
	}
	want := map[string]any{"first": "hi", "second": "hi again"}
	if diff := cmp.Diff(want, b.Plain()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownField_ReportsAccepted(t *testing.T) {
	_, err := run(t, "p:\n  type: print\n  stat: x\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
	mustContain(t, err.Error(), `The field "stat" is not permitted in key="p"`, "statement, out, input")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCopy_FileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "A")
	writeFile(t, filepath.Join(dir, "tree", "x", "y.txt"), "Y")

	src := "d: " + dir + "\n" + `
f:
  type: copy
  src: "{{ d }}/a.txt"
  dst: "{{ d }}/out/nested/b.txt"
t:
  type: copy
  src: "{{ d }}/tree"
  dst: "{{ d }}/tree2"
`
	out := mustRun(t, src, parser.Options{})

	if got := readFile(t, filepath.Join(dir, "out", "nested", "b.txt")); got != "A" {
		t.Fatalf("unexpected copy content %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "tree2", "x", "y.txt")); got != "Y" {
		t.Fatalf("unexpected copy content %q", got)
	}
	if get(t, out, "f") != filepath.Join(dir, "out", "nested", "b.txt") {
		t.Fatalf("unexpected return %v", get(t, out, "f"))
	}
}

func TestCopy_SkipIfFileExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "new")
	writeFile(t, filepath.Join(dir, "b.txt"), "old")

	src := "c:\n  type: copy\n  src: " + filepath.Join(dir, "a.txt") + "\n  dst: " + filepath.Join(dir, "b.txt") + "\n"
	mustRun(t, src, parser.Options{Mode: parser.Mode{SkipIfFileExists: true}})
	if got := readFile(t, filepath.Join(dir, "b.txt")); got != "old" {
		t.Fatalf("existing file overwritten: %q", got)
	}

	mustRun(t, src, parser.Options{Mode: parser.Mode{OverwriteIfExists: true}})
	if got := readFile(t, filepath.Join(dir, "b.txt")); got != "new" {
		t.Fatalf("file not overwritten: %q", got)
	}
}

func TestFileHooks_RefuseToOverwrite(t *testing.T) {
	tests := []struct {
		name string
		hook string
	}{
		{"copy", `type: copy
  src: "{{ d }}/a.txt"
  dst: "{{ d }}/b.txt"`},
		{"move", `type: move
  src: "{{ d }}/a.txt"
  dst: "{{ d }}/b.txt"`},
		{"create_file", `type: create_file
  path: "{{ d }}/b.txt"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "a.txt"), "new")
			writeFile(t, filepath.Join(dir, "b.txt"), "old")
			src := "d: " + dir + "\nh:\n  " + tt.hook + "\n"

			_, err := run(t, src, parser.Options{})
			if !errors.Is(err, hooks.ErrHookCall) {
				t.Fatalf("expected ErrHookCall, got %v", err)
			}
			mustContain(t, err.Error(), "already exists", "overwrite_if_exists")
			if got := readFile(t, filepath.Join(dir, "b.txt")); got != "old" {
				t.Fatalf("existing file changed: %q", got)
			}

			mustRun(t, src, parser.Options{Mode: parser.Mode{SkipIfFileExists: true}})
			if got := readFile(t, filepath.Join(dir, "b.txt")); got != "old" {
				t.Fatalf("existing file changed with skip: %q", got)
			}

			mustRun(t, src+"  overwrite_if_exists: true\n", parser.Options{})
			want := "new"
			if tt.name == "create_file" {
				want = ""
			}
			if got := readFile(t, filepath.Join(dir, "b.txt")); got != want {
				t.Fatalf("expected %q after overwrite, got %q", want, got)
			}
		})
	}
}

func TestFileHooks_OutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(dir, "a.txt"), "A")
	writeFile(t, filepath.Join(dir, "m.txt"), "M")

	src := "d: " + dir + "\n" + `
c:
  type: copy
  src: "{{ d }}/a.txt"
  dst: copied/a.txt
m:
  type: move
  src: "{{ d }}/m.txt"
  dst: moved.txt
f:
  type: create_file
  path: made/empty.txt
abs:
  type: create_file
  path: "{{ d }}/abs.txt"
`
	out := mustRun(t, src, parser.Options{Mode: parser.Mode{OutputDir: outDir}})

	if got := readFile(t, filepath.Join(outDir, "copied", "a.txt")); got != "A" {
		t.Fatalf("unexpected copy content %q", got)
	}
	if got := readFile(t, filepath.Join(outDir, "moved.txt")); got != "M" {
		t.Fatalf("unexpected move content %q", got)
	}
	if !exists(filepath.Join(outDir, "made", "empty.txt")) {
		t.Fatal("create_file ignored the output directory")
	}
	if !exists(filepath.Join(dir, "abs.txt")) {
		t.Fatal("absolute path should not be moved under the output directory")
	}
	if get(t, out, "c") != filepath.Join(outDir, "copied", "a.txt") {
		t.Fatalf("unexpected return %v", get(t, out, "c"))
	}
}

func TestCopy_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "c:\n  type: copy\n  src: "+filepath.Join(dir, "nope")+"\n  dst: x\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
	mustContain(t, err.Error(), "Can't find path", "nope")
}

func TestCopy_MissingRequiredField(t *testing.T) {
	_, err := run(t, "c:\n  type: copy\n  src: a\n", parser.Options{})
	var fe *hooks.FieldError
	if !errors.As(err, &fe) || fe.Field != "dst" {
		t.Fatalf("expected FieldError on dst, got %v", err)
	}
	if !errors.Is(err, hooks.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestMove_CreatePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "A")

	src := "m:\n  type: move\n  src: " + filepath.Join(dir, "a.txt") + "\n  dst: " + filepath.Join(dir, "sub", "b.txt") + "\n"
	mustRun(t, src, parser.Options{})
	if exists(filepath.Join(dir, "a.txt")) {
		t.Fatal("source still exists after move")
	}
	if got := readFile(t, filepath.Join(dir, "sub", "b.txt")); got != "A" {
		t.Fatalf("unexpected content %q", got)
	}

	writeFile(t, filepath.Join(dir, "c.txt"), "C")
	src = "m:\n  type: move\n  src: " + filepath.Join(dir, "c.txt") + "\n  dst: " + filepath.Join(dir, "missing", "c.txt") + "\n  create_path: false\n"
	if _, err := run(t, src, parser.Options{}); !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall without create_path, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"), "")
	writeFile(t, filepath.Join(dir, "b.log"), "")
	writeFile(t, filepath.Join(dir, "keep.txt"), "")

	out := mustRun(t, "r:\n  type: remove\n  path: "+filepath.Join(dir, "*.log")+"\n", parser.Options{})
	want := []any{filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")}
	if diff := cmp.Diff(want, get(t, out, "r")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if !exists(filepath.Join(dir, "keep.txt")) {
		t.Fatal("unmatched file removed")
	}

	missing := filepath.Join(dir, "gone")
	if _, err := run(t, "r:\n  type: remove\n  path: "+missing+"\n", parser.Options{}); err == nil {
		t.Fatal("expected error for missing path")
	} else {
		mustContain(t, err.Error(), "Can't find path "+missing+".")
	}
	mustRun(t, "r:\n  type: remove\n  path: "+missing+"\n  fail_silently: true\n", parser.Options{})
}

func TestShred(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "secret"), "hunter2")

	mustRun(t, "s:\n  type: shred\n  src: "+filepath.Join(dir, "secret")+"\n  passes: 2\n", parser.Options{})
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory after shred, got %d entries", len(entries))
	}
}

func TestChmod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sh")
	writeFile(t, path, "")

	mustRun(t, "c:\n  type: chmod\n  path: "+path+"\n  mode: \"0700\"\n", parser.Options{})
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o700 {
		t.Fatalf("unexpected mode %v", fi.Mode().Perm())
	}

	_, err = run(t, "c:\n  type: chmod\n  path: "+path+"\n  mode: \"rwx\"\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
}

func TestCreateFileAndListdir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden"), "")

	out := mustRun(t, "d: "+dir+"\n"+`
f:
  type: create_file
  path: "{{ d }}/b.txt"
g:
  type: create_file
  path: "{{ d }}/a.txt"
all:
  type: listdir
  directory: "{{ d }}"
visible:
  type: listdir
  directory: "{{ d }}"
  ignore_hidden_files: true
`, parser.Options{})

	if diff := cmp.Diff([]any{".hidden", "a.txt", "b.txt"}, get(t, out, "all")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a.txt", "b.txt"}, get(t, out, "visible")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestListdir_RequiresDirectory(t *testing.T) {
	_, err := run(t, "l:\n  type: listdir\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
}

func TestCommand_IsDeferredByDefault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	out := mustRun(t, `
c:
  type: command
  command: "touch `+marker+`"
now:
  type: command
  command: echo hello
  post_gen: false
`, parser.Options{})

	if v, ok := out.Get("c"); !ok || v != nil {
		t.Fatalf("deferred key should be present with nil, got %v %v", v, ok)
	}
	if get(t, out, "now") != "hello" {
		t.Fatalf("unexpected stdout %v", get(t, out, "now"))
	}
	if !exists(marker) {
		t.Fatal("deferred command did not run after the pass")
	}
}

func TestCommand_EchoesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	var buf bytes.Buffer
	out := mustRun(t, "c:\n  type: command\n  command: echo hello\n  post_gen: false\n", parser.Options{Stdout: &buf})

	if buf.String() != "hello\n" {
		t.Fatalf("unexpected stdout %q", buf.String())
	}
	if get(t, out, "c") != "hello" {
		t.Fatalf("unexpected value %v", get(t, out, "c"))
	}
}

func TestCommand_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	_, err := run(t, "c:\n  type: command\n  command: \"echo broken >&2; exit 3\"\n  post_gen: false\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
	mustContain(t, err.Error(), "exited with code 3", "broken", `key="c"`)
}

func TestCommand_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	_, err := run(t, "c:\n  type: command\n  command: sleep 5\n  timeout: 50ms\n  post_gen: false\n", parser.Options{})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
	mustContain(t, err.Error(), "timed out")
}

type answers struct {
	input  string
	choice string
}

func (a answers) Confirm(string, bool) (bool, error) { return true, nil }
func (a answers) Input(string, string) (string, error) { return a.input, nil }
func (a answers) Select(string, []string, string) (string, error) { return a.choice, nil }

func TestPrompts_NoInputTakesDefaults(t *testing.T) {
	out := mustRun(t, `
name:
  type: input
  default: tackle
ok:
  type: confirm
  default: false
pick:
  type: select
  choices: [a, b, c]
first:
  type: select
  choices: [a, b, c]
  default: b
`, parser.Options{Mode: parser.Mode{NoInput: true}, Prompter: answers{input: "asked", choice: "c"}})

	want := map[string]any{"name": "tackle", "ok": false, "pick": "a", "first": "b"}
	if diff := cmp.Diff(want, out.Plain()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPrompts_AskThePrompter(t *testing.T) {
	out := mustRun(t, `
name:
  type: input
ok:
  type: confirm
pick:
  type: select
  choices: [a, b, c]
`, parser.Options{Prompter: answers{input: "asked", choice: "c"}})

	want := map[string]any{"name": "asked", "ok": true, "pick": "c"}
	if diff := cmp.Diff(want, out.Plain()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect_DefaultMustBeAChoice(t *testing.T) {
	_, err := run(t, "s:\n  type: select\n  choices: [a]\n  default: z\n", parser.Options{Mode: parser.Mode{NoInput: true}})
	if !errors.Is(err, hooks.ErrHookCall) {
		t.Fatalf("expected ErrHookCall, got %v", err)
	}
}

func TestHost(t *testing.T) {
	out := mustRun(t, "h:\n  type: host\n", parser.Options{})
	facts, ok := get(t, out, "h").(*tree.Map)
	if !ok {
		t.Fatalf("host returned %T", get(t, out, "h"))
	}
	if v, _ := facts.Get("os"); v != runtime.GOOS {
		t.Fatalf("unexpected os %v", v)
	}
	if v, _ := facts.Get("cpus"); v.(int) < 1 {
		t.Fatalf("unexpected cpu count %v", v)
	}
}
