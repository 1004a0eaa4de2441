// Package config loads lambundle.toml and the esbuild override documents.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lambundle/pkg/bundle"
	"lambundle/pkg/env"
	"lambundle/pkg/nodeversion"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"
)

const (
	DefaultFile = "lambundle.toml"
	EnvFile     = "LAMBUNDLE_CONFIG"
)

var ErrInvalidOverrides = errors.New("invalid esbuild overrides")

//go:embed overrides.schema.json
var overridesSchema []byte

// Config mirrors lambundle.toml. Zero values mean "not set".
type Config struct {
	Entries        []string          `toml:"entries"`
	Outdir         string            `toml:"outdir"`
	Node           int               `toml:"node"`
	Runtime        string            `toml:"runtime"`
	Cwd            string            `toml:"cwd"`
	IncludeAWSSDK  bool              `toml:"include_aws_sdk"`
	ArtifactPrefix string            `toml:"artifact_prefix"`
	External       []string          `toml:"external"`
	Reproducible   bool              `toml:"reproducible"`
	Analyze        bool              `toml:"analyze"`
	Sarif          string            `toml:"sarif"`
	Ledger         string            `toml:"ledger"`
	Esbuild        *bundle.Overrides `toml:"esbuild"`

	// Path is the file the config was read from, empty when none was found.
	Path string `toml:"-"`
}

// Locate picks the config file: the explicit path, then $LAMBUNDLE_CONFIG,
// then ./lambundle.toml. required reports whether a missing file is an error.
func Locate(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvFile); env != "" {
		return env, true
	}
	return DefaultFile, false
}

// Load reads the config selected by Locate. A missing default file yields an
// empty config.
func Load(explicit string) (*Config, error) {
	path, required := Locate(explicit)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &Config{}, nil
		}
		return nil, err
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	cfg.Outdir = env.ExpandPath(cfg.Outdir)
	cfg.Cwd = env.ExpandPath(cfg.Cwd)
	cfg.Sarif = env.ExpandPath(cfg.Sarif)
	cfg.Ledger = env.ExpandPath(cfg.Ledger)
	if cfg.Cwd != "" && !filepath.IsAbs(cfg.Cwd) {
		// cwd in the file is relative to the file itself.
		abs, err := filepath.Abs(filepath.Join(filepath.Dir(path), cfg.Cwd))
		if err != nil {
			return nil, err
		}
		cfg.Cwd = abs
	}
	return cfg, nil
}

// Parse decodes a TOML document. source names it in error messages.
func Parse(data []byte, source string) (*Config, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if table, ok := raw["esbuild"]; ok {
		if err := validateOverrides(gojsonschema.NewGoLoader(table), source); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", source, strings.Join(keys, ", "))
	}
	if cfg.Esbuild != nil {
		if err := cfg.Esbuild.Validate(); err != nil {
			return nil, fmt.Errorf("%w in %s: %w", ErrInvalidOverrides, source, err)
		}
	}
	return cfg, nil
}

// ParseOverridesJSON decodes the --esbuild-json flag value.
func ParseOverridesJSON(s string) (*bundle.Overrides, error) {
	if err := validateOverrides(gojsonschema.NewStringLoader(s), "--esbuild-json"); err != nil {
		return nil, err
	}
	var out bundle.Overrides
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to parse --esbuild-json: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w in --esbuild-json: %w", ErrInvalidOverrides, err)
	}
	return &out, nil
}

func validateOverrides(doc gojsonschema.JSONLoader, source string) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(overridesSchema), doc)
	if err != nil {
		return fmt.Errorf("failed to validate esbuild overrides in %s: %w", source, err)
	}
	if !result.Valid() {
		var errs strings.Builder
		for _, desc := range result.Errors() {
			fmt.Fprintf(&errs, "\n- %s", desc)
		}
		return fmt.Errorf("%w in %s:%s", ErrInvalidOverrides, source, errs.String())
	}
	return nil
}

// NodeVersion returns the configured major version from node or runtime,
// 0 when neither is set.
func (c *Config) NodeVersion() (int, error) {
	if c.Runtime == "" {
		return c.Node, nil
	}
	major, err := nodeversion.Parse(c.Runtime)
	if err != nil {
		return 0, fmt.Errorf("runtime: %w", err)
	}
	if c.Node != 0 && c.Node != major {
		return 0, fmt.Errorf("node = %d conflicts with runtime = %q", c.Node, c.Runtime)
	}
	return major, nil
}

// Request converts the file settings into a bundle request. The top level
// external list comes before esbuild.external.
func (c *Config) Request() (bundle.Request, error) {
	node, err := c.NodeVersion()
	if err != nil {
		return bundle.Request{}, err
	}
	req := bundle.Request{
		Entries:        c.Entries,
		Outdir:         c.Outdir,
		Node:           node,
		Cwd:            c.Cwd,
		IncludeAWSSDK:  c.IncludeAWSSDK,
		ArtifactPrefix: c.ArtifactPrefix,
		Reproducible:   c.Reproducible,
		Analyze:        c.Analyze,
	}
	if len(c.External) > 0 {
		req.Esbuild = (&bundle.Overrides{External: c.External}).Merge(c.Esbuild)
	} else if c.Esbuild != nil {
		req.Esbuild = c.Esbuild.Merge(nil)
	}
	return req, nil
}
