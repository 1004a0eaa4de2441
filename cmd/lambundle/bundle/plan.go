package bundle

import (
	"encoding/json"
	"io"

	"lambundle/pkg/bundle"
	"lambundle/pkg/esbuild"
)

type planEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type planView struct {
	Entries           []planEntry       `json:"entries"`
	Outdir            string            `json:"outdir"`
	Cwd               string            `json:"cwd"`
	ArtifactPrefix    string            `json:"artifact_prefix,omitempty"`
	Bundle            bool              `json:"bundle"`
	Target            []string          `json:"target"`
	External          []string          `json:"external"`
	ResolveExtensions []string          `json:"resolve_extensions"`
	Reproducible      bool              `json:"reproducible"`
	Overrides         *bundle.Overrides `json:"overrides,omitempty"`
}

// printPlan resolves entries and options without bundling anything.
func printPlan(w io.Writer, req bundle.Request) error {
	entries, opts, err := bundle.Plan(req)
	if err != nil {
		return err
	}
	view := planView{
		Entries:           make([]planEntry, len(entries)),
		Outdir:            opts.Outdir,
		Cwd:               req.Cwd,
		ArtifactPrefix:    req.ArtifactPrefix,
		Bundle:            opts.Bundle,
		Target:            esbuild.FormatEngines(opts.Engines),
		External:          opts.External,
		ResolveExtensions: opts.ResolveExtensions,
		Reproducible:      req.Reproducible,
		Overrides:         req.Esbuild,
	}
	for i, e := range entries {
		view.Entries[i] = planEntry{Name: e.Name, Path: e.Path}
	}
	if view.External == nil {
		view.External = []string{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}
