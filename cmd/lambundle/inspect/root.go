package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// Entry is one member of an archive.
type Entry struct {
	Name           string `json:"name"`
	Size           uint64 `json:"size"`
	CompressedSize uint64 `json:"compressed_size"`
	Mode           string `json:"mode"`
}

type Archive struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

func GetCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <zip>...",
		Short: "List the entries of lambda artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			archives := make([]Archive, 0, len(args))
			for _, path := range args {
				a, err := Read(path)
				if err != nil {
					return err
				}
				archives = append(archives, a)
			}
			if asJSON {
				encoder := json.NewEncoder(c.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(archives)
			}
			for i, a := range archives {
				if i > 0 {
					fmt.Fprintln(c.OutOrStdout())
				}
				printArchive(c.OutOrStdout(), a)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// Read lists the entries of the zip at path in archive order.
func Read(path string) (Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Archive{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	a := Archive{Path: path, Entries: make([]Entry, 0, len(r.File))}
	for _, f := range r.File {
		a.Entries = append(a.Entries, Entry{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			Mode:           f.Mode().String(),
		})
	}
	return a, nil
}

func printArchive(w io.Writer, a Archive) {
	fmt.Fprintf(w, "%s\n", a.Path)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Mode", "Size", "Compressed", "Name"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	var total uint64
	for _, e := range a.Entries {
		total += e.Size
		size, compressed := "-", "-"
		if !strings.HasSuffix(e.Name, "/") {
			size = humanize.IBytes(e.Size)
			compressed = humanize.IBytes(e.CompressedSize)
		}
		table.Append([]string{e.Mode, size, compressed, e.Name})
	}
	table.Render()
	fmt.Fprintf(w, "%d entries, %s uncompressed\n", len(a.Entries), humanize.IBytes(total))
}
