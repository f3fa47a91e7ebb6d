package branching

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/sc/internal/branching"
)

const (
	groupShortTemplateConstant        = "Manage %s branches"
	groupLongTemplateConstant         = "%s runs branch operations across the repository or manifest topology."
	forceFlagNameConstant             = "force"
	forceFlagShorthandConstant        = "f"
	forceFlagUsageConstant            = "Force sync and checkout, discarding local changes"
	verifyFlagNameConstant            = "verify"
	verifyFlagShorthandConstant       = "v"
	verifyFlagUsageConstant           = "Verify the manifest revisions during sync"
	startShortTemplateConstant        = "Start a %s branch"
	checkoutShortTemplateConstant     = "Check out a %s branch across the topology"
	pullShortTemplateConstant         = "Pull the %s branch from its remote"
	pushShortTemplateConstant         = "Push the %s branch and record manifest revisions"
	finishShortTemplateConstant       = "Finish a %s branch"
	listShortTemplateConstant         = "List local and remote %s branches"
	unknownGroupTemplateConstant      = "%w: %q"
	unknownSubcommandTemplateConstant = "unknown %s subcommand %q"
)

type subcommandKind int

const (
	subcommandStart subcommandKind = iota
	subcommandCheckout
	subcommandPull
	subcommandPush
	subcommandFinish
	subcommandList
)

// subcommandDefinition describes one subcommand of a branch-type group.
type subcommandDefinition struct {
	kind        subcommandKind
	use         string
	arguments   cobra.PositionalArgs
	defaultBase string
}

var groupSubcommands = map[branching.BranchType][]subcommandDefinition{
	branching.BranchTypeFeature: {
		{kind: subcommandStart, use: "start <name> [base]", arguments: cobra.RangeArgs(1, 2), defaultBase: string(branching.BranchTypeDevelop)},
		{kind: subcommandCheckout, use: "checkout <name>", arguments: cobra.ExactArgs(1)},
		{kind: subcommandPull, use: "pull [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandPush, use: "push [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandFinish, use: "finish [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandList, use: "list", arguments: cobra.NoArgs},
	},
	branching.BranchTypeDevelop: {
		{kind: subcommandPull, use: "pull", arguments: cobra.NoArgs},
		{kind: subcommandPush, use: "push", arguments: cobra.NoArgs},
		{kind: subcommandCheckout, use: "checkout", arguments: cobra.NoArgs},
	},
	branching.BranchTypeMaster: {
		{kind: subcommandPull, use: "pull", arguments: cobra.NoArgs},
		{kind: subcommandPush, use: "push", arguments: cobra.NoArgs},
		{kind: subcommandCheckout, use: "checkout", arguments: cobra.NoArgs},
	},
	branching.BranchTypeRelease: {
		{kind: subcommandStart, use: "start <version>", arguments: cobra.ExactArgs(1), defaultBase: string(branching.BranchTypeDevelop)},
		{kind: subcommandFinish, use: "finish [tag]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandPull, use: "pull [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandPush, use: "push [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandCheckout, use: "checkout <name>", arguments: cobra.ExactArgs(1)},
		{kind: subcommandList, use: "list", arguments: cobra.NoArgs},
	},
	branching.BranchTypeHotfix: {
		{kind: subcommandStart, use: "start <version> [base]", arguments: cobra.RangeArgs(1, 2), defaultBase: string(branching.BranchTypeRelease)},
		{kind: subcommandCheckout, use: "checkout <name>", arguments: cobra.ExactArgs(1)},
		{kind: subcommandPush, use: "push [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandPull, use: "pull <name>", arguments: cobra.ExactArgs(1)},
		{kind: subcommandFinish, use: "finish [tag] [base]", arguments: cobra.MaximumNArgs(2)},
		{kind: subcommandList, use: "list", arguments: cobra.NoArgs},
	},
	branching.BranchTypeSupport: {
		{kind: subcommandStart, use: "start <version> [base]", arguments: cobra.RangeArgs(1, 2), defaultBase: string(branching.BranchTypeRelease)},
		{kind: subcommandPush, use: "push [name]", arguments: cobra.MaximumNArgs(1)},
		{kind: subcommandPull, use: "pull <name>", arguments: cobra.ExactArgs(1)},
		{kind: subcommandList, use: "list", arguments: cobra.NoArgs},
	},
}

// GroupBranchTypes lists the branch types that own a command group, in display order.
var GroupBranchTypes = []branching.BranchType{
	branching.BranchTypeFeature,
	branching.BranchTypeDevelop,
	branching.BranchTypeMaster,
	branching.BranchTypeRelease,
	branching.BranchTypeHotfix,
	branching.BranchTypeSupport,
}

// CommandGroupBuilder assembles the command group of one branch type.
type CommandGroupBuilder struct {
	BranchType      branching.BranchType
	ServiceProvider ServiceProvider
}

// Build constructs the group command and its subcommands.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	definitions, known := groupSubcommands[builder.BranchType]
	if !known {
		return nil, fmt.Errorf(unknownGroupTemplateConstant, branching.ErrUnknownBranchType, builder.BranchType)
	}

	command := &cobra.Command{
		Use:   builder.BranchType.String(),
		Short: fmt.Sprintf(groupShortTemplateConstant, builder.BranchType),
		Long:  fmt.Sprintf(groupLongTemplateConstant, builder.BranchType),
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return fmt.Errorf(unknownSubcommandTemplateConstant, builder.BranchType, arguments[0])
			}
			return command.Help()
		},
	}
	for _, definition := range definitions {
		command.AddCommand(builder.buildSubcommand(definition))
	}
	return command, nil
}

func (builder *CommandGroupBuilder) buildSubcommand(definition subcommandDefinition) *cobra.Command {
	subcommand := &cobra.Command{
		Use:   definition.use,
		Short: fmt.Sprintf(builder.shortTemplate(definition.kind), builder.BranchType),
		Args:  definition.arguments,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, definition, arguments)
		},
	}
	if definition.kind == subcommandCheckout {
		subcommand.Flags().BoolP(forceFlagNameConstant, forceFlagShorthandConstant, false, forceFlagUsageConstant)
		subcommand.Flags().BoolP(verifyFlagNameConstant, verifyFlagShorthandConstant, false, verifyFlagUsageConstant)
	}
	return subcommand
}

func (builder *CommandGroupBuilder) shortTemplate(kind subcommandKind) string {
	switch kind {
	case subcommandStart:
		return startShortTemplateConstant
	case subcommandCheckout:
		return checkoutShortTemplateConstant
	case subcommandPull:
		return pullShortTemplateConstant
	case subcommandPush:
		return pushShortTemplateConstant
	case subcommandFinish:
		return finishShortTemplateConstant
	default:
		return listShortTemplateConstant
	}
}

func (builder *CommandGroupBuilder) run(command *cobra.Command, definition subcommandDefinition, arguments []string) error {
	request := branching.Request{
		RunDirectory: resolveRunDirectory(command),
		BranchType:   builder.BranchType,
		Name:         argumentAt(arguments, 0),
	}

	switch definition.kind {
	case subcommandStart:
		request.Base = argumentAt(arguments, 1)
		if len(request.Base) == 0 {
			request.Base = definition.defaultBase
		}
		return runServiceAction(command, builder.ServiceProvider, Service.Start, request)
	case subcommandCheckout:
		request.Force, _ = command.Flags().GetBool(forceFlagNameConstant)
		request.Verify, _ = command.Flags().GetBool(verifyFlagNameConstant)
		return runServiceAction(command, builder.ServiceProvider, Service.Checkout, request)
	case subcommandPull:
		return runServiceAction(command, builder.ServiceProvider, Service.Pull, request)
	case subcommandPush:
		return runServiceAction(command, builder.ServiceProvider, Service.Push, request)
	case subcommandFinish:
		request.Base = argumentAt(arguments, 1)
		return runServiceAction(command, builder.ServiceProvider, Service.Finish, request)
	default:
		return runServiceAction(command, builder.ServiceProvider, Service.List, request)
	}
}
