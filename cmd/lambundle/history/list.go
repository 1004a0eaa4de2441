package history

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(c *cobra.Command) {
		cmd := &cobra.Command{
			Use:   "list",
			Short: "List recorded builds, newest first",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				limit, _ := c.Flags().GetInt("limit")
				asJSON, _ := c.Flags().GetBool("json")

				l, err := openLedger(c)
				if err != nil {
					return err
				}
				defer l.Close()

				builds, err := l.List(c.Context(), limit)
				if err != nil {
					return err
				}

				if asJSON {
					return json.NewEncoder(c.OutOrStdout()).Encode(builds)
				}

				w := tabwriter.NewWriter(c.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTIME\tNODE\tENTRIES\tARTIFACTS\tBUNDLE\tZIP")
				for _, b := range builds {
					fmt.Fprintf(w, "%d\t%s\tnode%d\t%d\t%d\t%.3fs\t%.3fs\n",
						b.ID,
						b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						b.Node,
						b.Entries,
						b.ArtifactCount,
						b.BundleSeconds,
						b.ArchiveSeconds,
					)
				}
				return w.Flush()
			},
		}
		cmd.Flags().Int("limit", 20, "Limit number of builds")
		cmd.Flags().Bool("json", false, "Output as JSON")
		c.AddCommand(cmd)
	})
}
