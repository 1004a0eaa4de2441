package analyze

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Parse decodes a metafile produced with BuildOptions.Metafile.
func Parse(metafile string) (*Metafile, error) {
	var meta Metafile
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &meta, nil
}

// Analyze returns one result per name, in the order given. Outputs are
// matched by their flat file name <name><ext>; names without an output
// are skipped.
func Analyze(meta *Metafile, names []string, ext string) []*Result {
	byName := make(map[string]string, len(meta.Outputs))
	for key := range meta.Outputs {
		base := path.Base(key)
		if !strings.HasSuffix(base, ext) {
			continue
		}
		byName[strings.TrimSuffix(base, ext)] = key
	}

	results := make([]*Result, 0, len(names))
	for _, name := range names {
		key, ok := byName[name]
		if !ok {
			continue
		}
		results = append(results, analyzeOutput(meta, name, meta.Outputs[key]))
	}
	return results
}

func analyzeOutput(meta *Metafile, name string, output MetafileOutput) *Result {
	result := &Result{Name: name, TotalBytes: output.Bytes}

	seen := map[string]bool{}
	for _, imp := range output.Imports {
		if imp.External && !seen[imp.Path] {
			seen[imp.Path] = true
			result.Externals = append(result.Externals, imp.Path)
		}
	}
	sort.Strings(result.Externals)

	for inputPath, contrib := range output.Inputs {
		percentage := 0.0
		if output.Bytes > 0 {
			percentage = float64(contrib.BytesInOutput) * 100 / float64(output.Bytes)
		}
		result.Inputs = append(result.Inputs, Input{
			Path:          inputPath,
			Bytes:         meta.Inputs[inputPath].Bytes,
			BytesInOutput: contrib.BytesInOutput,
			Percentage:    percentage,
		})
	}
	sort.Slice(result.Inputs, func(i, j int) bool {
		if result.Inputs[i].BytesInOutput != result.Inputs[j].BytesInOutput {
			return result.Inputs[i].BytesInOutput > result.Inputs[j].BytesInOutput
		}
		return result.Inputs[i].Path < result.Inputs[j].Path
	})
	return result
}
