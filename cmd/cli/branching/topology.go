package branching

import (
	"github.com/spf13/cobra"

	"github.com/temirov/sc/internal/branching"
)

const (
	initCommandUseConstant     = "init"
	initCommandShortConstant   = "Initialize git-flow conventions in the repository or every manifest project"
	statusCommandUseConstant   = "status"
	statusCommandShortConstant = "Show the working state of the repository or topology"
	cleanCommandUseConstant    = "clean"
	cleanCommandShortConstant  = "Remove untracked and ignored files, keeping topology metadata"
	resetCommandUseConstant    = "reset"
	resetCommandShortConstant  = "Hard-reset every unlocked project to its manifest revision"
)

// TopologyCommandBuilder assembles the commands that act on the whole topology.
type TopologyCommandBuilder struct {
	ServiceProvider ServiceProvider
}

// Build constructs the init, status, clean, and reset commands.
func (builder *TopologyCommandBuilder) Build() ([]*cobra.Command, error) {
	return []*cobra.Command{
		builder.command(initCommandUseConstant, initCommandShortConstant, Service.Init),
		builder.command(statusCommandUseConstant, statusCommandShortConstant, Service.Status),
		builder.command(cleanCommandUseConstant, cleanCommandShortConstant, Service.Clean),
		builder.command(resetCommandUseConstant, resetCommandShortConstant, Service.Reset),
	}, nil
}

func (builder *TopologyCommandBuilder) command(use string, short string, action serviceAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return runServiceAction(command, builder.ServiceProvider, action, branching.Request{
				RunDirectory: resolveRunDirectory(command),
			})
		},
	}
}
