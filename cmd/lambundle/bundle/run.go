package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"lambundle/pkg/analyze"
	"lambundle/pkg/bundle"
	"lambundle/pkg/ctxlog"
	"lambundle/pkg/entry"
	"lambundle/pkg/esbuild"
	"lambundle/pkg/ledger"
	"lambundle/pkg/report"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func run(c *cobra.Command, s settings, quiet bool) error {
	ctx := c.Context()
	logger := ctxlog.FromContext(ctx)
	out := c.OutOrStdout()

	entries, opts, err := bundle.Plan(s.req)
	if err != nil {
		return err
	}

	b := &bundle.Bundler{Builder: esbuild.Builder{}}
	if !quiet && len(entries) > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions(
			len(entries),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("zip"),
			progressbar.OptionThrottle(80*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		b.OnArchived = func(string) {
			_ = bar.Add(1)
		}
	}

	res, err := b.Run(ctx, s.req, entries, opts)
	if err != nil {
		var buildErr *esbuild.BuildError
		if errors.As(err, &buildErr) {
			if reportErr := writeSarif(ctx, s.sarif, buildErr.Errors, buildErr.Warnings); reportErr != nil {
				logger.Warn("failed to write SARIF report", "err", reportErr)
			}
		}
		return err
	}

	for _, w := range res.Warnings {
		logger.Warn("bundler warning", "msg", esbuild.FormatMessage(w, "WARNING"))
	}
	if !quiet {
		fmt.Fprintf(out, "✔️  Bundled %d lambdas in %.3f seconds.\n", len(res.Entries), res.BundleTime.Seconds())
		fmt.Fprintf(out, "✔️  Zipped %d lambda artifacts in %.3f seconds.\n", len(res.Artifacts), res.ArchiveTime.Seconds())
	}
	if err := writeSarif(ctx, s.sarif, nil, res.Warnings); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	if s.req.Analyze && res.Metafile != "" {
		if err := printAnalysis(out, res.Metafile, res.Entries, bundle.OutputExtension(opts), s.analyzeDetails); err != nil {
			return err
		}
	}
	if s.ledger != "" {
		id, err := record(ctx, s.ledger, res, s.req.Node)
		if err != nil {
			return fmt.Errorf("failed to record build in %s: %w", s.ledger, err)
		}
		if !quiet {
			fmt.Fprintf(out, "Recorded build #%d in %s\n", id, s.ledger)
		}
	}
	return nil
}

// writeSarif writes the report to path and to the CI directory, whichever are set.
func writeSarif(ctx context.Context, path string, errs, warnings []api.Message) error {
	targets := []string{}
	if path != "" {
		targets = append(targets, path)
	}
	if ci := report.CIPath(); ci != "" {
		targets = append(targets, ci)
	}
	if len(targets) == 0 {
		return nil
	}
	r, err := report.FromMessages(errs, warnings)
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := report.Write(r, target); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("wrote SARIF report", "path", target, "errors", len(errs), "warnings", len(warnings))
	}
	return nil
}

func printAnalysis(w io.Writer, metafile string, entries []entry.Entry, ext string, details bool) error {
	meta, err := analyze.Parse(metafile)
	if err != nil {
		return err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	results := analyze.Analyze(meta, names, ext)
	for _, r := range results {
		analyze.Display(w, r, details)
	}
	analyze.Summary(w, results)
	return nil
}

func record(ctx context.Context, path string, res *bundle.Result, node int) (int64, error) {
	l, err := ledger.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := l.Close(); err != nil {
			ctxlog.FromContext(ctx).Warn("failed to close ledger", "err", err)
		}
	}()
	build, err := ledger.FromResult(res, node, time.Now())
	if err != nil {
		return 0, err
	}
	return l.Record(ctx, build)
}
