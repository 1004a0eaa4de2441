package history

import (
	"errors"

	"lambundle/pkg/config"
	"lambundle/pkg/ledger"
	"lambundle/pkg/registry"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

var errNoLedger = errors.New("no ledger configured (use --ledger or set ledger in lambundle.toml)")

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect builds recorded with --ledger",
	}
	cmd.PersistentFlags().String("ledger", "", "Ledger database (default: ledger from lambundle.toml)")
	Registry.FillCommands(cmd)
	return cmd
}

func openLedger(c *cobra.Command) (*ledger.Ledger, error) {
	path, _ := c.Flags().GetString("ledger")
	if path == "" {
		configPath, _ := c.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Ledger
	}
	if path == "" {
		return nil, errNoLedger
	}
	return ledger.Open(c.Context(), path)
}
