package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lambundle/pkg/config"
	"lambundle/pkg/ledger"
)

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := ledger.Open(t.Context(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	for _, node := range []int{18, 20} {
		if _, err := l.Record(t.Context(), ledger.Build{
			CreatedAt: time.Now(),
			Node:      node,
			Entries:   1,
			Artifacts: []ledger.Artifact{{Name: "a", Path: "/dist/a.zip", Size: 2048, SHA256: "abc123"}},
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := GetCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	t.Parallel()

	path := seed(t)
	out, err := execute(t, "list", "--ledger", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "2 ") || !strings.Contains(lines[1], "node20") {
		t.Fatalf("newest build should come first:\n%s", out)
	}

	out, err = execute(t, "list", "--ledger", path, "--json", "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var builds []ledger.Build
	if err := json.Unmarshal([]byte(out), &builds); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(builds) != 1 || builds[0].ID != 2 {
		t.Fatalf("json mismatch: %+v", builds)
	}
}

func TestShow(t *testing.T) {
	t.Parallel()

	path := seed(t)
	out, err := execute(t, "show", "1", "--ledger", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Build #1", "node18", "abc123", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output should contain %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "show", "99", "--ledger", path); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := execute(t, "show", "abc", "--ledger", path); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestNoLedgerConfigured(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Chdir(t.TempDir())

	if _, err := execute(t, "list"); !errors.Is(err, errNoLedger) {
		t.Fatalf("expected errNoLedger, got %v", err)
	}
}
