package bundle

import (
	"fmt"

	"lambundle/pkg/entry"
	"lambundle/pkg/esbuild"
	"lambundle/pkg/externals"

	"github.com/evanw/esbuild/pkg/api"
)

// ResolveExtensions prefers plain JavaScript over TypeScript with the same
// base name. esbuild's default order resolves .ts first, which picks the
// wrong file in packages that ship both side by side.
var ResolveExtensions = []string{".jsx", ".js", ".tsx", ".ts", ".json"}

// Overrides are escape-hatch bundler settings applied after everything
// computed internally. Zero values mean "not set".
type Overrides struct {
	External          []string          `toml:"external" json:"external,omitempty"`
	Bundle            *bool             `toml:"bundle" json:"bundle,omitempty"`
	Sourcemap         string            `toml:"sourcemap" json:"sourcemap,omitempty"`
	Platform          string            `toml:"platform" json:"platform,omitempty"`
	Target            string            `toml:"target" json:"target,omitempty"`
	Format            string            `toml:"format" json:"format,omitempty"`
	ResolveExtensions []string          `toml:"resolve_extensions" json:"resolve_extensions,omitempty"`
	MainFields        []string          `toml:"main_fields" json:"main_fields,omitempty"`
	Conditions        []string          `toml:"conditions" json:"conditions,omitempty"`
	Minify            *bool             `toml:"minify" json:"minify,omitempty"`
	KeepNames         *bool             `toml:"keep_names" json:"keep_names,omitempty"`
	TreeShaking       *bool             `toml:"tree_shaking" json:"tree_shaking,omitempty"`
	Define            map[string]string `toml:"define" json:"define,omitempty"`
	Loader            map[string]string `toml:"loader" json:"loader,omitempty"`
	Banner            map[string]string `toml:"banner" json:"banner,omitempty"`
	Footer            map[string]string `toml:"footer" json:"footer,omitempty"`
	OutExtension      map[string]string `toml:"out_extension" json:"out_extension,omitempty"`
	Tsconfig          string            `toml:"tsconfig" json:"tsconfig,omitempty"`
	LegalComments     string            `toml:"legal_comments" json:"legal_comments,omitempty"`
	Charset           string            `toml:"charset" json:"charset,omitempty"`
	Drop              []string          `toml:"drop" json:"drop,omitempty"`
}

// Validate checks every enum-valued field.
func (o *Overrides) Validate() error {
	var scratch api.BuildOptions
	return o.apply(&scratch)
}

// Merge returns o with the fields set in other taking precedence.
// External lists are concatenated.
func (o *Overrides) Merge(other *Overrides) *Overrides {
	if o == nil {
		return other
	}
	if other == nil {
		return o
	}
	out := *o
	out.External = append(append([]string{}, o.External...), other.External...)
	if other.Bundle != nil {
		out.Bundle = other.Bundle
	}
	if other.Sourcemap != "" {
		out.Sourcemap = other.Sourcemap
	}
	if other.Platform != "" {
		out.Platform = other.Platform
	}
	if other.Target != "" {
		out.Target = other.Target
	}
	if other.Format != "" {
		out.Format = other.Format
	}
	if other.ResolveExtensions != nil {
		out.ResolveExtensions = other.ResolveExtensions
	}
	if other.MainFields != nil {
		out.MainFields = other.MainFields
	}
	if other.Conditions != nil {
		out.Conditions = other.Conditions
	}
	if other.Minify != nil {
		out.Minify = other.Minify
	}
	if other.KeepNames != nil {
		out.KeepNames = other.KeepNames
	}
	if other.TreeShaking != nil {
		out.TreeShaking = other.TreeShaking
	}
	if other.Define != nil {
		out.Define = other.Define
	}
	if other.Loader != nil {
		out.Loader = other.Loader
	}
	if other.Banner != nil {
		out.Banner = other.Banner
	}
	if other.Footer != nil {
		out.Footer = other.Footer
	}
	if other.OutExtension != nil {
		out.OutExtension = other.OutExtension
	}
	if other.Tsconfig != "" {
		out.Tsconfig = other.Tsconfig
	}
	if other.LegalComments != "" {
		out.LegalComments = other.LegalComments
	}
	if other.Charset != "" {
		out.Charset = other.Charset
	}
	if other.Drop != nil {
		out.Drop = other.Drop
	}
	return &out
}

func (o *Overrides) apply(opts *api.BuildOptions) error {
	if o.Bundle != nil {
		opts.Bundle = *o.Bundle
	}
	if o.Sourcemap != "" {
		v, err := esbuild.ParseSourcemap(o.Sourcemap)
		if err != nil {
			return err
		}
		opts.Sourcemap = v
	}
	if o.Platform != "" {
		v, err := esbuild.ParsePlatform(o.Platform)
		if err != nil {
			return err
		}
		opts.Platform = v
	}
	if o.Target != "" {
		target, engines, err := esbuild.ParseTarget(o.Target)
		if err != nil {
			return err
		}
		opts.Target = target
		opts.Engines = engines
	}
	if o.Format != "" {
		v, err := esbuild.ParseFormat(o.Format)
		if err != nil {
			return err
		}
		opts.Format = v
	}
	if o.ResolveExtensions != nil {
		opts.ResolveExtensions = o.ResolveExtensions
	}
	if o.MainFields != nil {
		opts.MainFields = o.MainFields
	}
	if o.Conditions != nil {
		opts.Conditions = o.Conditions
	}
	if o.Minify != nil {
		opts.MinifyWhitespace = *o.Minify
		opts.MinifyIdentifiers = *o.Minify
		opts.MinifySyntax = *o.Minify
	}
	if o.KeepNames != nil {
		opts.KeepNames = *o.KeepNames
	}
	if o.TreeShaking != nil {
		opts.TreeShaking = api.TreeShakingFalse
		if *o.TreeShaking {
			opts.TreeShaking = api.TreeShakingTrue
		}
	}
	if o.Define != nil {
		opts.Define = o.Define
	}
	if o.Loader != nil {
		opts.Loader = make(map[string]api.Loader, len(o.Loader))
		for ext, name := range o.Loader {
			l, err := esbuild.ParseLoader(name)
			if err != nil {
				return fmt.Errorf("loader for %q: %w", ext, err)
			}
			opts.Loader[ext] = l
		}
	}
	if o.Banner != nil {
		opts.Banner = o.Banner
	}
	if o.Footer != nil {
		opts.Footer = o.Footer
	}
	if o.OutExtension != nil {
		opts.OutExtension = o.OutExtension
	}
	if o.Tsconfig != "" {
		opts.Tsconfig = o.Tsconfig
	}
	if o.LegalComments != "" {
		v, err := esbuild.ParseLegalComments(o.LegalComments)
		if err != nil {
			return err
		}
		opts.LegalComments = v
	}
	if o.Charset != "" {
		v, err := esbuild.ParseCharset(o.Charset)
		if err != nil {
			return err
		}
		opts.Charset = v
	}
	if o.Drop != nil {
		opts.Drop = 0
		for _, name := range o.Drop {
			d, err := esbuild.ParseDrop(name)
			if err != nil {
				return err
			}
			opts.Drop |= d
		}
	}
	return nil
}

// Externals returns the externals list the request bundles with.
func Externals(req Request) []string {
	var caller []string
	if req.Esbuild != nil {
		caller = req.Esbuild.External
	}
	return externals.Resolve(req.Node, req.IncludeAWSSDK, caller)
}

// BuildOptions computes the bundler configuration for the resolved entries.
// Every entry is written flat as <outdir>/<name>.js.
func BuildOptions(req Request, entries []entry.Entry) (api.BuildOptions, error) {
	opts := api.BuildOptions{
		Bundle:            true,
		Sourcemap:         api.SourceMapNone,
		Platform:          api.PlatformNode,
		Engines:           esbuild.NodeTarget(req.Node),
		Outdir:            req.OutdirPath(),
		AbsWorkingDir:     req.Cwd,
		External:          Externals(req),
		ResolveExtensions: append([]string{}, ResolveExtensions...),
		Metafile:          req.Analyze,
		Write:             true,
		LogLevel:          api.LogLevelSilent,
	}
	if req.Esbuild != nil {
		if err := req.Esbuild.apply(&opts); err != nil {
			return api.BuildOptions{}, err
		}
	}

	// Entries are applied last; overrides never change them.
	opts.EntryPoints = nil
	opts.EntryPointsAdvanced = make([]api.EntryPoint, len(entries))
	for i, e := range entries {
		opts.EntryPointsAdvanced[i] = api.EntryPoint{InputPath: e.Path, OutputPath: e.Name}
	}
	return opts, nil
}

// OutputExtension is the extension the bundler gives each flat output file.
func OutputExtension(opts api.BuildOptions) string {
	if ext, ok := opts.OutExtension[".js"]; ok && ext != "" {
		return ext
	}
	return ".js"
}
