package registry

import "github.com/spf13/cobra"

// CommandRegistry collects subcommand constructors from init functions so a
// parent command can attach them without importing each file explicitly.
type CommandRegistry struct {
	fillers []func(*cobra.Command)
}

// Register adds a function that attaches commands to the parent.
func (r *CommandRegistry) Register(fn func(*cobra.Command)) {
	r.fillers = append(r.fillers, fn)
}

// FromGetter registers a constructor whose command becomes a direct child.
func (r *CommandRegistry) FromGetter(get func() *cobra.Command) {
	r.Register(func(c *cobra.Command) {
		c.AddCommand(get())
	})
}

// FillCommands attaches every registered command to cmd and returns it.
func (r *CommandRegistry) FillCommands(cmd *cobra.Command) *cobra.Command {
	for _, fill := range r.fillers {
		fill(cmd)
	}
	return cmd
}
