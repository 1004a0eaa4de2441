package externals

import (
	"fmt"

	"lambundle/pkg/externals"
	"lambundle/pkg/nodeversion"

	"github.com/spf13/cobra"
)

func GetCommand() *cobra.Command {
	var (
		node          string
		includeAWSSDK bool
		external      []string
	)

	cmd := &cobra.Command{
		Use:   "externals",
		Short: "Print the packages left out of the bundle for a runtime",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			major, err := nodeversion.Parse(node)
			if err != nil {
				return fmt.Errorf("--node: %w", err)
			}
			for _, name := range externals.Resolve(major, includeAWSSDK, external) {
				fmt.Fprintln(c.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "Node.js version to target")
	cmd.Flags().BoolVar(&includeAWSSDK, "include-aws-sdk", false, "Do not exclude the AWS SDK")
	cmd.Flags().StringArrayVar(&external, "external", nil, "Additional package to exclude (repeatable)")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}
