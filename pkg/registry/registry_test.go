package registry

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestFillCommands(t *testing.T) {
	var r CommandRegistry
	r.FromGetter(func() *cobra.Command { return &cobra.Command{Use: "first"} })
	r.Register(func(c *cobra.Command) {
		c.AddCommand(&cobra.Command{Use: "second"}, &cobra.Command{Use: "third"})
	})

	root := r.FillCommands(&cobra.Command{Use: "root"})
	if len(root.Commands()) != 3 {
		t.Fatalf("expected 3 subcommands, got %d", len(root.Commands()))
	}
	for _, name := range []string{"first", "second", "third"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("subcommand %q not found: %v", name, err)
		}
	}
}
