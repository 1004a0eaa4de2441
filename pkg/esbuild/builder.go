// Package esbuild adapts the esbuild Go API to the bundle orchestrator.
package esbuild

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Builder runs esbuild in-process.
type Builder struct{}

// Build runs one esbuild build. Errors reported by esbuild come back as a
// *BuildError; the result is returned in every case so warnings and the
// metafile stay available. Cancelling ctx cancels the build.
func (Builder) Build(ctx context.Context, opts api.BuildOptions) (api.BuildResult, error) {
	bctx, cerr := api.Context(opts)
	if cerr != nil {
		return api.BuildResult{Errors: cerr.Errors}, &BuildError{Errors: cerr.Errors}
	}
	defer bctx.Dispose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			bctx.Cancel()
		case <-done:
		}
	}()

	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(result.Errors) > 0 {
		return result, &BuildError{Errors: result.Errors, Warnings: result.Warnings}
	}
	return result, nil
}

// BuildError carries the messages of a failed esbuild build.
type BuildError struct {
	Errors   []api.Message
	Warnings []api.Message
}

func (e *BuildError) Error() string {
	var b strings.Builder
	noun := "errors"
	if len(e.Errors) == 1 {
		noun = "error"
	}
	fmt.Fprintf(&b, "Build failed with %d %s:", len(e.Errors), noun)
	for _, msg := range e.Errors {
		b.WriteString("\n")
		b.WriteString(FormatMessage(msg, "ERROR"))
	}
	return b.String()
}

// FormatMessage renders a message the way esbuild's own CLI summary does:
// "src/a.ts:3:7: ERROR: Expected ";" but found "x"".
func FormatMessage(msg api.Message, kind string) string {
	text := msg.Text
	if msg.PluginName != "" {
		text = fmt.Sprintf("[plugin %s] %s", msg.PluginName, text)
	}
	if loc := msg.Location; loc != nil {
		return fmt.Sprintf("%s:%d:%d: %s: %s", loc.File, loc.Line, loc.Column, kind, text)
	}
	return fmt.Sprintf("%s: %s", kind, text)
}
