package history

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(c *cobra.Command) {
		cmd := &cobra.Command{
			Use:   "show <id>",
			Short: "Show one recorded build and its artifacts",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				asJSON, _ := c.Flags().GetBool("json")
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid build id %q", args[0])
				}

				l, err := openLedger(c)
				if err != nil {
					return err
				}
				defer l.Close()

				b, err := l.Get(c.Context(), id)
				if err != nil {
					return err
				}

				out := c.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(b)
				}

				fmt.Fprintf(out, "Build #%d at %s\n", b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Target node%d, %d entries, bundled in %.3fs, zipped in %.3fs\n\n",
					b.Node, b.Entries, b.BundleSeconds, b.ArchiveSeconds)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSIZE\tSHA256\tPATH")
				for _, a := range b.Artifacts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, humanize.IBytes(uint64(a.Size)), a.SHA256, a.Path)
				}
				return w.Flush()
			},
		}
		cmd.Flags().Bool("json", false, "Output as JSON")
		c.AddCommand(cmd)
	})
}
