package bundle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrNoEntries     = errors.New("at least one entry pattern is required")
	ErrNoOutdir      = errors.New("an output directory is required")
	ErrNoNode        = errors.New("a target node version is required")
	ErrBadPrefix     = errors.New("artifact prefix must be a relative path inside the artifact")
	ErrRelativeCwd   = errors.New("working directory must be absolute")
	ErrNameCollision = errors.New("entries share an output name")
)

// Request describes one bundling run.
type Request struct {
	// Entries are glob patterns (or literal paths) of the functions to bundle.
	Entries []string
	// Outdir receives one directory and one zip per entry.
	Outdir string
	// Node is the targeted Node.js major version.
	Node int
	// Cwd resolves relative entry patterns and outdir. It must be absolute
	// when set; empty means the process working directory.
	Cwd string
	// IncludeAWSSDK disables the runtime SDK exclusion.
	IncludeAWSSDK bool
	// ArtifactPrefix nests the bundled file inside its directory, e.g.
	// "nodejs/node_modules" for a layer layout.
	ArtifactPrefix string
	// Esbuild overrides the computed bundler options. Its External list is
	// merged with the SDK exclusion instead of replacing it.
	Esbuild *Overrides
	// Reproducible writes archives with fixed timestamps.
	Reproducible bool
	// Analyze asks the bundler for a metafile (Result.Metafile).
	Analyze bool
}

// Validate rejects requests missing required parameters before any work starts.
func (r Request) Validate() error {
	if len(r.Entries) == 0 {
		return ErrNoEntries
	}
	if strings.TrimSpace(r.Outdir) == "" {
		return ErrNoOutdir
	}
	if r.Node <= 0 {
		return ErrNoNode
	}
	if r.Cwd != "" && !filepath.IsAbs(r.Cwd) {
		return fmt.Errorf("%w: %q", ErrRelativeCwd, r.Cwd)
	}
	if r.ArtifactPrefix != "" && !filepath.IsLocal(filepath.FromSlash(r.ArtifactPrefix)) {
		return fmt.Errorf("%w: %q", ErrBadPrefix, r.ArtifactPrefix)
	}
	if r.Esbuild != nil {
		if err := r.Esbuild.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OutdirPath returns Outdir resolved against Cwd.
func (r Request) OutdirPath() string {
	if r.Cwd != "" && !filepath.IsAbs(r.Outdir) {
		return filepath.Join(r.Cwd, r.Outdir)
	}
	return filepath.Clean(r.Outdir)
}

func (r Request) prefix() string {
	return filepath.FromSlash(strings.Trim(r.ArtifactPrefix, "/"))
}
