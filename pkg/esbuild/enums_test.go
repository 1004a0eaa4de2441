package esbuild

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/go-cmp/cmp"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTarget  api.Target
		wantEngines []api.Engine
		wantErr     bool
	}{
		{
			name:        "node only",
			input:       "node18",
			wantTarget:  api.DefaultTarget,
			wantEngines: []api.Engine{{Name: api.EngineNode, Version: "18"}},
		},
		{
			name:        "language and engine",
			input:       "es2022, node20.5",
			wantTarget:  api.ES2022,
			wantEngines: []api.Engine{{Name: api.EngineNode, Version: "20.5"}},
		},
		{
			name:       "language only",
			input:      "esnext",
			wantTarget: api.ESNext,
		},
		{name: "unknown engine", input: "bun1", wantErr: true},
		{name: "no version", input: "node", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, engines, err := ParseTarget(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target != tt.wantTarget {
				t.Fatalf("target mismatch: got=%v want=%v", target, tt.wantTarget)
			}
			if diff := cmp.Diff(tt.wantEngines, engines); diff != "" {
				t.Fatalf("engines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if p, err := ParsePlatform("Node"); err != nil || p != api.PlatformNode {
		t.Fatalf("platform mismatch: got=%v err=%v", p, err)
	}
	if _, err := ParsePlatform("deno"); err == nil {
		t.Fatal("expected unknown platform error")
	}
	if f, err := ParseFormat("esm"); err != nil || f != api.FormatESModule {
		t.Fatalf("format mismatch: got=%v err=%v", f, err)
	}
	if s, err := ParseSourcemap("inline"); err != nil || s != api.SourceMapInline {
		t.Fatalf("sourcemap mismatch: got=%v err=%v", s, err)
	}
	if l, err := ParseLoader("TEXT"); err != nil || l != api.LoaderText {
		t.Fatalf("loader mismatch: got=%v err=%v", l, err)
	}
	if _, err := ParseLoader("wasm"); err == nil {
		t.Fatal("expected unknown loader error")
	}
	if d, err := ParseDrop("console"); err != nil || d != api.DropConsole {
		t.Fatalf("drop mismatch: got=%v err=%v", d, err)
	}
	if c, err := ParseLegalComments("eof"); err != nil || c != api.LegalCommentsEndOfFile {
		t.Fatalf("legal comments mismatch: got=%v err=%v", c, err)
	}
}

func TestFormatEngines(t *testing.T) {
	got := FormatEngines(append(NodeTarget(18), api.Engine{Name: api.EngineChrome, Version: "120"}))
	if diff := cmp.Diff([]string{"node18", "chrome120"}, got); diff != "" {
		t.Fatalf("engines mismatch (-want +got):\n%s", diff)
	}
}
