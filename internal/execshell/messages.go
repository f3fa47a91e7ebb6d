package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	allRemotesLabelConstant                 = "all remotes"
	flagPrefixConstant                      = "-"
)

const (
	gitFetchSubcommandNameConstant    = "fetch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitSwitchSubcommandNameConstant   = "switch"
	gitPushSubcommandNameConstant     = "push"
	gitPullSubcommandNameConstant     = "pull"
	gitMergeSubcommandNameConstant    = "merge"
	gitCommitSubcommandNameConstant   = "commit"
	gitTagSubcommandNameConstant      = "tag"
	gitFlowSubcommandNameConstant     = "flow"
	gitLFSSubcommandNameConstant      = "lfs"
	gitMessageFlagConstant            = "-m"
	gitCreateBranchFlagConstant       = "-b"
	gitSwitchCreateFlagConstant       = "-c"
	gitSwitchForceCreateFlagConstant  = "-C"
	gitTagDeleteFlagConstant          = "-d"
	repoSyncSubcommandNameConstant    = "sync"
)

// stageTemplates holds start, success, failure, and execution-failure templates.
// Templates receive the described subject first, then the working directory.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandTemplates = map[string]stageTemplates{
	gitCheckoutSubcommandNameConstant: {
		start:            "Checking out %s in %s",
		success:          "Checked out %s in %s",
		failure:          "Failed to check out %s in %s",
		executionFailure: "Unable to check out %s in %s",
	},
	gitSwitchSubcommandNameConstant: {
		start:            "Switching to %s in %s",
		success:          "Switched to %s in %s",
		failure:          "Failed to switch to %s in %s",
		executionFailure: "Unable to switch to %s in %s",
	},
	gitPullSubcommandNameConstant: {
		start:            "Pulling %s in %s",
		success:          "Pulled %s in %s",
		failure:          "Failed to pull %s in %s",
		executionFailure: "Unable to pull %s in %s",
	},
	gitMergeSubcommandNameConstant: {
		start:            "Merging %s in %s",
		success:          "Merged %s in %s",
		failure:          "Failed to merge %s in %s",
		executionFailure: "Unable to merge %s in %s",
	},
	gitCommitSubcommandNameConstant: {
		start:            "Creating commit %q in %s",
		success:          "Created commit %q in %s",
		failure:          "Failed to create commit %q in %s",
		executionFailure: "Unable to create commit %q in %s",
	},
	gitTagSubcommandNameConstant: {
		start:            "Updating tag %s in %s",
		success:          "Updated tag %s in %s",
		failure:          "Failed to update tag %s in %s",
		executionFailure: "Unable to update tag %s in %s",
	},
	gitFlowSubcommandNameConstant: {
		start:            "Running git flow %s in %s",
		success:          "Completed git flow %s in %s",
		failure:          "git flow %s failed in %s",
		executionFailure: "Unable to run git flow %s in %s",
	},
	gitLFSSubcommandNameConstant: {
		start:            "Running lfs %s in %s",
		success:          "Completed lfs %s in %s",
		failure:          "lfs %s failed in %s",
		executionFailure: "Unable to run lfs %s in %s",
	},
}

var remoteSubcommandTemplates = map[string]stageTemplates{
	gitFetchSubcommandNameConstant: {
		start:            "Fetching %s from %s in %s",
		success:          "Fetched %s from %s in %s",
		failure:          "Failed to fetch %s from %s in %s",
		executionFailure: "Unable to fetch %s from %s in %s",
	},
	gitPushSubcommandNameConstant: {
		start:            "Pushing %s to %s from %s",
		success:          "Pushed %s to %s from %s",
		failure:          "Failed to push %s to %s from %s",
		executionFailure: "Unable to push %s to %s from %s",
	},
}

var remoteWithoutReferencesTemplates = map[string]stageTemplates{
	gitFetchSubcommandNameConstant: {
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s",
		executionFailure: "Unable to fetch from %s in %s",
	},
	gitPushSubcommandNameConstant: {
		start:            "Pushing to %s from %s",
		success:          "Pushed to %s from %s",
		failure:          "Failed to push to %s from %s",
		executionFailure: "Unable to push to %s from %s",
	},
}

var repoSyncTemplates = stageTemplates{
	start:            "Synchronizing topology in %s",
	success:          "Synchronized topology in %s",
	failure:          "Failed to synchronize topology in %s",
	executionFailure: "Unable to synchronize topology in %s",
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that exited with status zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero status.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(arguments[0])
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch command.Name {
	case CommandRepo:
		if subcommand == repoSyncSubcommandNameConstant {
			return formatter.applyTemplates(repoSyncTemplates, result, failure, stage, workingDirectory)
		}
	case CommandGit:
		if _, isRemoteSubcommand := remoteSubcommandTemplates[subcommand]; isRemoteSubcommand {
			return formatter.describeRemoteMessage(subcommand, arguments, result, failure, stage, workingDirectory)
		}
		if templates, known := gitSubcommandTemplates[subcommand]; known {
			return formatter.applyTemplates(templates, result, failure, stage, formatter.describeSubject(subcommand, arguments), workingDirectory)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeRemoteMessage(subcommand string, arguments []string, result ExecutionResult, failure error, stage messageStage, workingDirectory string) string {
	positionalArguments := extractPositionalArguments(arguments[1:])
	if len(positionalArguments) == 0 {
		return formatter.applyTemplates(remoteWithoutReferencesTemplates[subcommand], result, failure, stage, allRemotesLabelConstant, workingDirectory)
	}

	remoteName := positionalArguments[0]
	references := positionalArguments[1:]
	if len(references) == 0 {
		return formatter.applyTemplates(remoteWithoutReferencesTemplates[subcommand], result, failure, stage, remoteName, workingDirectory)
	}

	return formatter.applyTemplates(remoteSubcommandTemplates[subcommand], result, failure, stage, strings.Join(references, ", "), remoteName, workingDirectory)
}

func (formatter CommandMessageFormatter) describeSubject(subcommand string, arguments []string) string {
	switch subcommand {
	case gitCommitSubcommandNameConstant:
		return findFlagValue(arguments, gitMessageFlagConstant)
	case gitCheckoutSubcommandNameConstant, gitSwitchSubcommandNameConstant:
		for _, creationFlag := range []string{gitCreateBranchFlagConstant, gitSwitchCreateFlagConstant, gitSwitchForceCreateFlagConstant} {
			if createdBranch := findFlagValue(arguments, creationFlag); len(createdBranch) > 0 {
				return createdBranch
			}
		}
	case gitTagSubcommandNameConstant:
		if deletedTag := findFlagValue(arguments, gitTagDeleteFlagConstant); len(deletedTag) > 0 {
			return deletedTag
		}
	case gitFlowSubcommandNameConstant, gitLFSSubcommandNameConstant:
		return strings.Join(arguments[1:], commandArgumentsJoinSeparatorConstant)
	}

	positionalArguments := extractPositionalArguments(arguments[1:])
	if len(positionalArguments) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return strings.Join(positionalArguments, commandArgumentsJoinSeparatorConstant)
}

func (formatter CommandMessageFormatter) applyTemplates(templates stageTemplates, result ExecutionResult, failure error, stage messageStage, values ...string) string {
	templateArguments := make([]any, 0, len(values))
	for _, value := range values {
		templateArguments = append(templateArguments, value)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, templateArguments...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, templateArguments...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, templateArguments...) + fmt.Sprintf(" (exit code %d%s)", result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, templateArguments...) + fmt.Sprintf(standardErrorSuffixTemplateConstant, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	workingDirectorySuffix := ""
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func extractPositionalArguments(arguments []string) []string {
	positionalArguments := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		positionalArguments = append(positionalArguments, trimmedArgument)
	}
	return positionalArguments
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if arguments[argumentIndex] == flag {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return ""
}
