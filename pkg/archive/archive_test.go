package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip %s: %v", path, err)
	}
	defer r.Close()

	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestZipDirSingleFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "first-file")
	writeTree(t, src, map[string]string{"first-file.js": "exports.handler = () => 1;\n"})

	dest := filepath.Join(root, "first-file.zip")
	stats, err := ZipDir(src, dest, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Files != 1 || stats.Dirs != 0 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
	if stats.Size <= 0 {
		t.Fatalf("expected archive size, got %d", stats.Size)
	}

	got := readZip(t, dest)
	want := map[string]string{"first-file.js": "exports.handler = () => 1;\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestZipDirKeepsNestedPrefix(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "a")
	writeTree(t, src, map[string]string{"layer/nested/a.js": "a"})

	dest := filepath.Join(root, "a.zip")
	if _, err := ZipDir(src, dest, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := readZip(t, dest)
	names := make([]string, 0, len(got))
	for name := range got {
		names = append(names, name)
	}
	sort.Strings(names)
	want := []string{"layer/", "layer/nested/", "layer/nested/a.js"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
	if got["layer/nested/a.js"] != "a" {
		t.Fatalf("content mismatch: %q", got["layer/nested/a.js"])
	}
}

func TestZipDirReproducible(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "fn")
	writeTree(t, src, map[string]string{"fn.js": "console.log(1)", "nodejs/lib.js": "x"})

	first := filepath.Join(root, "first.zip")
	second := filepath.Join(root, "second.zip")
	if _, err := ZipDir(src, first, Options{Reproducible: true}); err != nil {
		t.Fatalf("first archive: %v", err)
	}
	// Touch the tree so a non-reproducible archive would differ.
	later := ReproducibleTime.AddDate(40, 0, 0)
	if err := os.Chtimes(filepath.Join(src, "fn.js"), later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, err := ZipDir(src, second, Options{Reproducible: true}); err != nil {
		t.Fatalf("second archive: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Fatal("expected byte-identical archives")
	}

	r, err := zip.OpenReader(first)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	for _, f := range r.File {
		if !f.Modified.Equal(ReproducibleTime) {
			t.Fatalf("entry %s modified mismatch: got=%s", f.Name, f.Modified)
		}
	}
}

func TestZipDirMissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, err := ZipDir(filepath.Join(root, "missing"), filepath.Join(root, "missing.zip"), Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestZipAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var jobs []Job
	for _, name := range []string{"a", "b", "c"} {
		writeTree(t, filepath.Join(root, name), map[string]string{name + ".js": name})
		jobs = append(jobs, Job{
			Name: name,
			Dir:  filepath.Join(root, name),
			Dest: filepath.Join(root, name+".zip"),
		})
	}

	var mu sync.Mutex
	var done []string
	stats, err := ZipAll(context.Background(), jobs, Options{
		OnDone: func(j Job, _ Stats) {
			mu.Lock()
			done = append(done, j.Name)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 stats, got %d", len(stats))
	}
	sort.Strings(done)
	if diff := cmp.Diff([]string{"a", "b", "c"}, done); diff != "" {
		t.Fatalf("callbacks mismatch (-want +got):\n%s", diff)
	}
	for _, j := range jobs {
		got := readZip(t, j.Dest)
		if got[j.Name+".js"] != j.Name {
			t.Fatalf("archive %s content mismatch: %v", j.Dest, got)
		}
	}
}

func TestZipAllFailureDoesNotStopSiblings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, filepath.Join(root, "ok"), map[string]string{"ok.js": "ok"})
	jobs := []Job{
		{Name: "missing", Dir: filepath.Join(root, "missing"), Dest: filepath.Join(root, "missing.zip")},
		{Name: "ok", Dir: filepath.Join(root, "ok"), Dest: filepath.Join(root, "ok.zip")},
	}

	_, err := ZipAll(context.Background(), jobs, Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if got := readZip(t, filepath.Join(root, "ok.zip")); got["ok.js"] != "ok" {
		t.Fatalf("sibling archive not completed: %v", got)
	}
}

func TestZipDirFollowsSymlinkedDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"shared/lib/util.js": "util",
		"src/index.js":       "index",
	})
	src := filepath.Join(root, "src")
	if err := os.Symlink(filepath.Join(root, "shared"), filepath.Join(src, "shared")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	dest := filepath.Join(root, "out.zip")
	stats, err := ZipDir(src, dest, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"index.js":           "index",
		"shared/":            "",
		"shared/lib/":        "",
		"shared/lib/util.js": "util",
	}
	if diff := cmp.Diff(want, readZip(t, dest)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if stats.Files != 2 || stats.Dirs != 2 {
		t.Fatalf("stats mismatch: files=%d dirs=%d", stats.Files, stats.Dirs)
	}
}

func TestZipDirSymlinkCycle(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/nested/index.js": "index"})
	src := filepath.Join(root, "src")
	if err := os.Symlink(src, filepath.Join(src, "nested", "loop")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := ZipDir(src, filepath.Join(root, "out.zip"), Options{}); err == nil {
		t.Fatal("expected symlink cycle error")
	}
}
