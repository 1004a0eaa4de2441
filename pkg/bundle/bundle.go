// Package bundle turns Lambda entrypoints into one zip artifact each:
// resolve entries, bundle them in a single esbuild run, move every bundle
// into its own directory and archive those directories.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lambundle/pkg/archive"
	"lambundle/pkg/ctxlog"
	"lambundle/pkg/entry"
	"lambundle/pkg/esbuild"
	"lambundle/pkg/nodeversion"
	"lambundle/pkg/timing"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"
)

// Builder is the external bundler. It must write one file per entry point
// into opts.Outdir and report failures as an error.
type Builder interface {
	Build(ctx context.Context, opts api.BuildOptions) (api.BuildResult, error)
}

// Bundler executes requests against a Builder.
type Bundler struct {
	Builder Builder
	// OnArchived is called as each archive is finished, possibly concurrently.
	OnArchived func(name string)
}

// Artifact is the output of one entry.
type Artifact struct {
	Name    string // entry base name
	Source  string // entry path
	Dir     string // <outdir>/<name>
	File    string // <outdir>/<name>/<prefix>/<name>.js
	Archive string // <outdir>/<name>.zip
	Files   int    // files in the archive
	Size    int64  // archive size in bytes
}

// Result reports what a run produced.
type Result struct {
	Entries     []entry.Entry
	Externals   []string
	Artifacts   []Artifact
	BundleTime  time.Duration
	ArchiveTime time.Duration
	Warnings    []api.Message
	Metafile    string
}

// Execute runs req with the in-process esbuild builder.
func Execute(ctx context.Context, req Request) (*Result, error) {
	b := &Bundler{Builder: esbuild.Builder{}}
	return b.Execute(ctx, req)
}

// Plan validates req and resolves its entries without doing any work. A file
// matched by several patterns is bundled once.
func Plan(req Request) ([]entry.Entry, api.BuildOptions, error) {
	if err := req.Validate(); err != nil {
		return nil, api.BuildOptions{}, err
	}
	entries, err := entry.Resolve(req.Entries, req.Cwd)
	if err != nil {
		return nil, api.BuildOptions{}, err
	}
	entries, err = uniqueNames(entries)
	if err != nil {
		return nil, api.BuildOptions{}, err
	}
	opts, err := BuildOptions(req, entries)
	if err != nil {
		return nil, api.BuildOptions{}, err
	}
	return entries, opts, nil
}

// Execute bundles, relocates and archives every entry matched by req. Any
// failure fails the whole run; nothing already written is rolled back.
func (b *Bundler) Execute(ctx context.Context, req Request) (*Result, error) {
	entries, opts, err := Plan(req)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, req, entries, opts)
}

// Run executes an already planned request. entries and opts must come from
// Plan(req).
func (b *Bundler) Run(ctx context.Context, req Request, entries []entry.Entry, opts api.BuildOptions) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	res := &Result{Entries: entries, Externals: opts.External}
	if len(entries) == 0 {
		logger.Debug("no entries matched", "patterns", req.Entries)
		return res, nil
	}
	logger.Debug("bundling",
		"entries", len(entries),
		"target", nodeversion.Target(req.Node),
		"externals", opts.External,
		"outdir", opts.Outdir,
	)

	built, err := timing.Measure(func() (api.BuildResult, error) {
		return b.Builder.Build(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	res.BundleTime = built.Elapsed
	res.Warnings = built.Value.Warnings
	res.Metafile = built.Value.Metafile

	outdir := opts.Outdir
	res.Artifacts = make([]Artifact, len(entries))
	for i, e := range entries {
		dir := filepath.Join(outdir, e.Name)
		res.Artifacts[i] = Artifact{
			Name:    e.Name,
			Source:  e.Path,
			Dir:     dir,
			File:    filepath.Join(dir, req.prefix(), e.Name+".js"),
			Archive: dir + ".zip",
		}
	}

	if err := relocate(ctx, outdir, OutputExtension(opts), res.Artifacts); err != nil {
		return nil, err
	}

	jobs := make([]archive.Job, len(res.Artifacts))
	for i, a := range res.Artifacts {
		jobs[i] = archive.Job{Name: a.Name, Dir: a.Dir, Dest: a.Archive}
	}
	zipped, err := timing.Measure(func() ([]archive.Stats, error) {
		return archive.ZipAll(ctx, jobs, archive.Options{
			Reproducible: req.Reproducible,
			OnDone: func(j archive.Job, _ archive.Stats) {
				if b.OnArchived != nil {
					b.OnArchived(j.Name)
				}
			},
		})
	})
	if err != nil {
		return nil, err
	}
	res.ArchiveTime = zipped.Elapsed
	for i, s := range zipped.Value {
		res.Artifacts[i].Files = s.Files
		res.Artifacts[i].Size = s.Size
	}
	return res, nil
}

// relocate moves each flat bundle <outdir>/<name><ext> to its artifact path.
// All moves run at once; the first failure is returned after the rest finish.
func relocate(ctx context.Context, outdir, ext string, artifacts []Artifact) error {
	logger := ctxlog.FromContext(ctx)

	var g errgroup.Group
	for _, a := range artifacts {
		g.Go(func() error {
			if err := os.MkdirAll(filepath.Dir(a.File), 0755); err != nil {
				return err
			}
			src := filepath.Join(outdir, a.Name+ext)
			if err := os.Rename(src, a.File); err != nil {
				return err
			}
			logger.Debug("moved bundle", "name", a.Name, "from", src, "to", a.File)
			return nil
		})
	}
	return g.Wait()
}

func uniqueNames(entries []entry.Entry) ([]entry.Entry, error) {
	seen := make(map[string]string, len(entries))
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if prev, ok := seen[e.Name]; ok {
			if filepath.Clean(prev) == filepath.Clean(e.Path) {
				continue
			}
			return nil, fmt.Errorf("%w %q: %s and %s", ErrNameCollision, e.Name, prev, e.Path)
		}
		seen[e.Name] = e.Path
		out = append(out, e)
	}
	return out, nil
}
