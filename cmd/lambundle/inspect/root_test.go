package inspect

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lambundle/pkg/archive"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func makeArtifact(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "a")
	writeFile(t, filepath.Join(dir, "layer", "a.js"), "module.exports = {};\n")
	dest := filepath.Join(root, "a.zip")
	if _, err := archive.ZipDir(dir, dest, archive.Options{Reproducible: true}); err != nil {
		t.Fatalf("zip: %v", err)
	}
	return dest
}

func TestRead(t *testing.T) {
	t.Parallel()

	a, err := Read(makeArtifact(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		names[i] = e.Name
	}
	if diff := cmp.Diff([]string{"layer/", "layer/a.js"}, names); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if a.Entries[1].Size != uint64(len("module.exports = {};\n")) {
		t.Fatalf("size mismatch: got=%d", a.Entries[1].Size)
	}
}

func TestReadMissing(t *testing.T) {
	t.Parallel()

	if _, err := Read(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatal("expected error")
	}
}

func TestInspectCommand(t *testing.T) {
	t.Parallel()

	path := makeArtifact(t)

	var text bytes.Buffer
	cmd := GetCommand()
	cmd.SetOut(&text)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text.String(), "layer/a.js") || !strings.Contains(text.String(), "2 entries") {
		t.Fatalf("unexpected output:\n%s", text.String())
	}

	var raw bytes.Buffer
	cmd = GetCommand()
	cmd.SetOut(&raw)
	cmd.SetArgs([]string{"--json", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var archives []Archive
	if err := json.Unmarshal(raw.Bytes(), &archives); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(archives) != 1 || archives[0].Path != path || len(archives[0].Entries) != 2 {
		t.Fatalf("json mismatch: %+v", archives)
	}
}
