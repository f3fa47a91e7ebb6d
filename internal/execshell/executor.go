package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandStartedLogMessageConstant          = "executing command"
	commandCompletedLogMessageConstant        = "command completed"
	commandFailedLogMessageConstant           = "command exited with non-zero status"
	commandExecutionErrorLogMessageConstant   = "command execution failed"
	commandFieldNameConstant                  = "command"
	argumentsFieldNameConstant                = "arguments"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
	standardErrorFieldNameConstant            = "stderr"
	commandFailedErrorTemplateConstant        = "%s failed with exit code %d%s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %v"
	commandErrorStandardErrorTemplateConstant = ": %s"
	commandErrorLabelSeparatorConstant        = " "
)

// CommandName identifies an executable invoked by ShellExecutor.
type CommandName string

// Supported executables.
const (
	CommandGit  CommandName = "git"
	CommandRepo CommandName = "repo"
)

// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandDetails describes the invocation parameters of a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran and exited with a non-zero status.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	if trimmed := strings.TrimSpace(failure.Result.StandardError); len(trimmed) > 0 {
		standardErrorSuffix = fmt.Sprintf(commandErrorStandardErrorTemplateConstant, trimmed)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(*ShellExecutor)

// WithCommandEventObserver registers an observer notified about command lifecycle events.
// Observers are notified in registration order.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observers = append(executor.observers, observer)
		}
	}
}

// ShellExecutor runs external commands and records their lifecycle.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observers []CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor from a logger and a runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{logger: logger, runner: runner}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// Execute runs the command and converts non-zero exit codes into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(commandFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsFieldNameConstant, command.Details.Arguments),
		zap.String(workingDirectoryFieldNameConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(commandStartedLogMessageConstant, commandFields...)
	executor.notify(CommandEvent{Stage: CommandStageStarted, Command: command})

	result, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Debug(commandExecutionErrorLogMessageConstant, append(commandFields, zap.Error(runError))...)
		executor.notify(CommandEvent{Stage: CommandStageExecutionFailed, Command: command, Failure: runError})
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.notify(CommandEvent{Stage: CommandStageCompleted, Command: command, Result: result})

	if result.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedLogMessageConstant,
			append(commandFields, zap.Int(exitCodeFieldNameConstant, result.ExitCode), zap.String(standardErrorFieldNameConstant, strings.TrimSpace(result.StandardError)))...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Debug(commandCompletedLogMessageConstant, append(commandFields, zap.Int(exitCodeFieldNameConstant, result.ExitCode))...)
	return result, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteRepo runs the repo tool with the provided details.
func (executor *ShellExecutor) ExecuteRepo(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandRepo, Details: details})
}

func (executor *ShellExecutor) notify(event CommandEvent) {
	for _, observer := range executor.observers {
		observer.ObserveCommand(event)
	}
}

func describeCommand(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, commandErrorLabelSeparatorConstant)
}
