package ui

import (
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/execshell"
)

const (
	gitStatusSubcommandConstant = "status"
	gitConfigSubcommandConstant = "config"
	gitBranchSubcommandConstant = "branch"
	gitConfigGetFlagConstant    = "--get"
	gitContainsFlagConstant     = "--contains"
)

// queryGitSubcommands only read repository state and never change a checkout.
var queryGitSubcommands = []string{"for-each-ref", "ls-remote", "remote", "rev-parse"}

// ConsoleCommandEventLogger renders command lifecycle events through a console-encoded zap logger.
// Commands that only inspect repository state are rendered at debug level, others at info.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// ObserveCommand logs the event. Non-zero exits are warnings and commands that could not run are errors.
func (eventLogger *ConsoleCommandEventLogger) ObserveCommand(event execshell.CommandEvent) {
	if eventLogger == nil {
		return
	}

	switch event.Stage {
	case execshell.CommandStageStarted:
		eventLogger.progress(event.Command, eventLogger.formatter.BuildStartedMessage(event.Command))
	case execshell.CommandStageCompleted:
		if event.Succeeded() {
			eventLogger.progress(event.Command, eventLogger.formatter.BuildSuccessMessage(event.Command))
			return
		}
		eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(event.Command, event.Result))
	case execshell.CommandStageExecutionFailed:
		eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(event.Command, event.Failure))
	}
}

func (eventLogger *ConsoleCommandEventLogger) progress(command execshell.ShellCommand, message string) {
	if isQueryCommand(command) {
		eventLogger.logger.Debug(message)
		return
	}
	eventLogger.logger.Info(message)
}

func isQueryCommand(command execshell.ShellCommand) bool {
	if command.Name != execshell.CommandGit || len(command.Details.Arguments) == 0 {
		return false
	}
	arguments := command.Details.Arguments
	switch subcommand := arguments[0]; {
	case slices.Contains(queryGitSubcommands, subcommand):
		return true
	case subcommand == gitStatusSubcommandConstant:
		return true
	case subcommand == gitConfigSubcommandConstant:
		return slices.Contains(arguments, gitConfigGetFlagConstant)
	case subcommand == gitBranchSubcommandConstant:
		return slices.Contains(arguments, gitContainsFlagConstant)
	default:
		return false
	}
}
