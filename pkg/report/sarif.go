// Package report converts bundler diagnostics to SARIF.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	ToolName = "esbuild"
	// CIEnv names a directory that receives CIFile on every run.
	CIEnv  = "LAMBUNDLE_SARIF_OUTPUT_DIR"
	CIFile = "bundle.sarif"
)

// FromMessages builds a report with one run holding every error and warning.
func FromMessages(errs, warnings []api.Message) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}
	run := sarif.NewRun(*sarif.NewTool(sarif.NewDriver(ToolName)))
	for _, msg := range errs {
		run.AddResult(convert(msg, "error"))
	}
	for _, msg := range warnings {
		run.AddResult(convert(msg, "warning"))
	}
	report.AddRun(run)
	return report, nil
}

func convert(msg api.Message, level string) *sarif.Result {
	ruleID := msg.ID
	if ruleID == "" {
		ruleID = ToolName
	}
	result := sarif.NewRuleResult(ruleID).
		WithMessage(sarif.NewTextMessage(msg.Text)).
		WithLevel(level)
	if msg.Location == nil || msg.Location.File == "" {
		return result
	}

	// esbuild columns are 0-based, SARIF columns 1-based.
	loc := msg.Location
	region := sarif.NewRegion().
		WithStartLine(loc.Line).
		WithStartColumn(loc.Column + 1)
	if loc.Length > 0 {
		region = region.WithEndLine(loc.Line).WithEndColumn(loc.Column + loc.Length + 1)
	}
	return result.WithLocations([]*sarif.Location{
		sarif.NewLocation().
			WithPhysicalLocation(sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().
					WithUri(filepath.ToSlash(loc.File))).
				WithRegion(region)),
	})
}

// Write stores report as indented JSON, creating parent directories.
func Write(report *sarif.Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// CIPath returns where the CI copy of the report goes, empty when CIEnv is unset.
func CIPath() string {
	dir := os.Getenv(CIEnv)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, CIFile)
}
