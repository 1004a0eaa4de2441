package analyze

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// TopInputs is how many inputs Display shows without details.
const TopInputs = 10

// Display prints the breakdown of one function.
func Display(w io.Writer, result *Result, showDetails bool) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle Analysis: %s ===\n", result.Name)
	_, _ = fmt.Fprintf(w, "Total bundle size: %s\n", humanize.IBytes(uint64(result.TotalBytes)))

	if len(result.Externals) > 0 {
		_, _ = fmt.Fprintln(w, "\nExternal imports (resolved at runtime):")
		for _, imp := range result.Externals {
			_, _ = fmt.Fprintf(w, "  - %s\n", imp)
		}
	}

	if len(result.Inputs) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nBundle breakdown:")
	shown := result.Inputs
	if !showDetails && len(shown) > TopInputs {
		shown = shown[:TopInputs]
	}
	table := newTable(w, nil)
	for _, in := range shown {
		table.Append([]string{
			truncatePath(in.Path, 50),
			humanize.IBytes(uint64(in.BytesInOutput)),
			fmt.Sprintf("%5.1f%%", in.Percentage),
		})
	}
	table.Render()
	if remaining := len(result.Inputs) - len(shown); remaining > 0 {
		_, _ = fmt.Fprintf(w, "  ... and %d more files\n", remaining)
	}
}

// Summary prints one row per function, largest first, and the total.
func Summary(w io.Writer, results []*Result) {
	if len(results) == 0 {
		return
	}
	sorted := append([]*Result{}, results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalBytes > sorted[j].TotalBytes
	})

	_, _ = fmt.Fprintln(w, "\n=== Bundle Size Summary ===")
	table := newTable(w, []string{"Function", "Bundle size", "Files", "Externals"})
	var total uint64
	for _, r := range sorted {
		total += uint64(r.TotalBytes)
		table.Append([]string{
			r.Name,
			humanize.IBytes(uint64(r.TotalBytes)),
			strconv.Itoa(len(r.Inputs)),
			strconv.Itoa(len(r.Externals)),
		})
	}
	table.SetFooter([]string{"Total", humanize.IBytes(total), "", ""})
	table.Render()
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	if len(headers) > 0 {
		table.SetHeader(headers)
	}
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetFooterAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
