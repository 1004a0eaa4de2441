package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"lambundle/pkg/bundle"
	"lambundle/pkg/config"
	"lambundle/pkg/nodeversion"

	"github.com/spf13/cobra"
)

type options struct {
	entries        []string
	outdir         string
	node           string
	cwd            string
	includeAWSSDK  bool
	artifactPrefix string
	external       []string
	esbuildJSON    string
	reproducible   bool
	analyze        bool
	analyzeDetails bool
	sarif          string
	ledger         string
	dryRun         bool
}

// settings is what config and flags resolve to.
type settings struct {
	req            bundle.Request
	sarif          string
	ledger         string
	analyzeDetails bool
}

func GetCommand() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Bundle Lambda entrypoints into one zip artifact each",
		Long: `Bundle every entry matched by --entries with esbuild, move each bundle into
<outdir>/<name>/<artifact-prefix>/<name>.js and zip that directory to
<outdir>/<name>.zip.

The AWS SDK shipped with the targeted runtime is left external unless
--include-aws-sdk is given. Settings from lambundle.toml are used for every
flag that is not set explicitly.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			configPath, _ := c.Flags().GetString("config")
			quiet, _ := c.Flags().GetBool("quiet")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			s, err := o.resolve(c, cfg)
			if err != nil {
				return err
			}
			if o.dryRun {
				return printPlan(c.OutOrStdout(), s.req)
			}
			return run(c, s, quiet)
		},
	}
	o.bind(cmd)
	return cmd
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&o.entries, "entries", nil, "Lambda entrypoint or glob pattern (repeatable)")
	f.StringVar(&o.outdir, "outdir", "", "Output directory for lambda artifacts")
	f.StringVar(&o.node, "node", "", "Node.js version to target (18, v18.17.1, nodejs18.x)")
	f.StringVar(&o.cwd, "cwd", "", "Directory relative entries and outdir are resolved against")
	f.BoolVar(&o.includeAWSSDK, "include-aws-sdk", false, "Bundle the AWS SDK instead of leaving it to the runtime")
	f.StringVar(&o.artifactPrefix, "artifact-prefix", "", "Path of the bundle inside each zip, e.g. nodejs/node_modules")
	f.StringArrayVar(&o.external, "external", nil, "Package to exclude from the bundle (repeatable)")
	f.StringVar(&o.esbuildJSON, "esbuild-json", "", "JSON object of esbuild overrides")
	f.BoolVar(&o.reproducible, "reproducible", false, "Use fixed timestamps in the zips")
	f.BoolVar(&o.analyze, "analyze", false, "Print a size breakdown of every bundle")
	f.BoolVar(&o.analyzeDetails, "analyze-details", false, "List every input in the size breakdown (implies --analyze)")
	f.StringVar(&o.sarif, "sarif", "", "Write bundler diagnostics as SARIF to this file")
	f.StringVar(&o.ledger, "ledger", "", "Record the build in this SQLite database")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the resolved entries and bundler options, then exit")
}

// resolve layers explicitly set flags over cfg.
func (o *options) resolve(c *cobra.Command, cfg *config.Config) (settings, error) {
	req, err := cfg.Request()
	if err != nil {
		return settings{}, err
	}
	s := settings{sarif: cfg.Sarif, ledger: cfg.Ledger}
	changed := c.Flags().Changed

	if changed("entries") {
		req.Entries = o.entries
	}
	if changed("outdir") {
		req.Outdir = o.outdir
	}
	if changed("node") {
		if req.Node, err = nodeversion.Parse(o.node); err != nil {
			return settings{}, fmt.Errorf("--node: %w", err)
		}
	}
	if changed("cwd") {
		req.Cwd = o.cwd
	}
	if changed("include-aws-sdk") {
		req.IncludeAWSSDK = o.includeAWSSDK
	}
	if changed("artifact-prefix") {
		req.ArtifactPrefix = o.artifactPrefix
	}
	if changed("reproducible") {
		req.Reproducible = o.reproducible
	}
	if changed("analyze") {
		req.Analyze = o.analyze
	}
	if o.analyzeDetails {
		req.Analyze = true
		s.analyzeDetails = true
	}
	if changed("external") {
		req.Esbuild = req.Esbuild.Merge(&bundle.Overrides{External: o.external})
	}
	if changed("esbuild-json") {
		overrides, err := config.ParseOverridesJSON(o.esbuildJSON)
		if err != nil {
			return settings{}, err
		}
		req.Esbuild = req.Esbuild.Merge(overrides)
	}
	if changed("sarif") {
		s.sarif = o.sarif
	}
	if changed("ledger") {
		s.ledger = o.ledger
	}

	if req.Cwd == "" {
		if req.Cwd, err = os.Getwd(); err != nil {
			return settings{}, err
		}
	} else if req.Cwd, err = filepath.Abs(req.Cwd); err != nil {
		return settings{}, err
	}
	if req.Outdir != "" {
		req.Outdir = req.OutdirPath()
	}

	s.req = req
	return s, nil
}
