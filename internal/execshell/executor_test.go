package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/sc/internal/execshell"
)

const (
	testTopologyDirectoryConstant = "/tmp/topology"
	testProjectDirectoryConstant  = "/tmp/topology/app"
	testMergeConflictConstant     = "CONFLICT (content): Merge conflict in default.xml"
)

type scriptedCommandRunner struct {
	results  []execshell.ExecutionResult
	failure  error
	recorded []execshell.ShellCommand
}

func (runner *scriptedCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recorded = append(runner.recorded, command)
	if runner.failure != nil {
		return execshell.ExecutionResult{}, runner.failure
	}
	if len(runner.results) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	next := runner.results[0]
	runner.results = runner.results[1:]
	return next, nil
}

func TestNewShellExecutorValidatesCollaborators(testInstance *testing.T) {
	_, loggerError := execshell.NewShellExecutor(nil, &scriptedCommandRunner{})
	require.ErrorIs(testInstance, loggerError, execshell.ErrLoggerNotConfigured)

	_, runnerError := execshell.NewShellExecutor(zap.NewNop(), nil)
	require.ErrorIs(testInstance, runnerError, execshell.ErrCommandRunnerNotConfigured)

	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), &scriptedCommandRunner{}, nil)
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, executor)
}

func TestShellExecutorClassifiesOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runner           *scriptedCommandRunner
		expectedOutput   string
		assertError      func(testInstance *testing.T, executionError error)
		expectedMessages []string
	}{
		{
			name:             "success",
			runner:           &scriptedCommandRunner{results: []execshell.ExecutionResult{{StandardOutput: "develop\n"}}},
			expectedOutput:   "develop\n",
			expectedMessages: []string{"executing command", "command completed"},
		},
		{
			name:   "non_zero_exit",
			runner: &scriptedCommandRunner{results: []execshell.ExecutionResult{{ExitCode: 128, StandardError: "fatal: not a git repository"}}},
			assertError: func(testInstance *testing.T, executionError error) {
				var failedError execshell.CommandFailedError
				require.ErrorAs(testInstance, executionError, &failedError)
				require.Equal(testInstance, 128, failedError.Result.ExitCode)
				require.Equal(testInstance, "git rev-parse --abbrev-ref HEAD failed with exit code 128: fatal: not a git repository", failedError.Error())
			},
			expectedMessages: []string{"executing command", "command exited with non-zero status"},
		},
		{
			name:   "runner_failure",
			runner: &scriptedCommandRunner{failure: errors.New("exec: \"git\": executable file not found in $PATH")},
			assertError: func(testInstance *testing.T, executionError error) {
				var executionFailure execshell.CommandExecutionError
				require.ErrorAs(testInstance, executionError, &executionFailure)
				require.Contains(testInstance, executionFailure.Error(), "git rev-parse --abbrev-ref HEAD could not be executed")
			},
			expectedMessages: []string{"executing command", "command execution failed"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), testCase.runner)
			require.NoError(testInstance, creationError)

			result, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{
				Arguments:        []string{"rev-parse", "--abbrev-ref", "HEAD"},
				WorkingDirectory: testProjectDirectoryConstant,
			})

			if testCase.assertError == nil {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.expectedOutput, result.StandardOutput)
			} else {
				testCase.assertError(testInstance, executionError)
				require.Empty(testInstance, result.StandardOutput)
			}

			entries := observedLogs.All()
			require.Len(testInstance, entries, len(testCase.expectedMessages))
			for entryIndex, expectedMessage := range testCase.expectedMessages {
				require.Equal(testInstance, expectedMessage, entries[entryIndex].Message)
				require.Equal(testInstance, testProjectDirectoryConstant, entries[entryIndex].ContextMap()["working_directory"])
			}
		})
	}
}

func TestShellExecutorNamesExecutables(testInstance *testing.T) {
	runner := &scriptedCommandRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, creationError)

	_, gitError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"fetch", "origin"}, WorkingDirectory: testProjectDirectoryConstant})
	require.NoError(testInstance, gitError)
	_, repoError := executor.ExecuteRepo(context.Background(), execshell.CommandDetails{Arguments: []string{"sync", "-d"}, WorkingDirectory: testTopologyDirectoryConstant})
	require.NoError(testInstance, repoError)

	require.Len(testInstance, runner.recorded, 2)
	require.Equal(testInstance, execshell.CommandGit, runner.recorded[0].Name)
	require.Equal(testInstance, execshell.CommandRepo, runner.recorded[1].Name)
	require.Equal(testInstance, testTopologyDirectoryConstant, runner.recorded[1].Details.WorkingDirectory)
}

func TestShellExecutorNotifiesObserversInOrder(testInstance *testing.T) {
	var events []execshell.CommandEvent
	var secondaryStages []execshell.CommandStage
	primaryObserver := execshell.CommandEventObserverFunc(func(event execshell.CommandEvent) {
		events = append(events, event)
	})
	secondaryObserver := execshell.CommandEventObserverFunc(func(event execshell.CommandEvent) {
		secondaryStages = append(secondaryStages, event.Stage)
	})
	runner := &scriptedCommandRunner{results: []execshell.ExecutionResult{{ExitCode: 1, StandardError: testMergeConflictConstant}}}

	executor, creationError := execshell.NewShellExecutor(
		zap.NewNop(),
		runner,
		execshell.WithCommandEventObserver(primaryObserver),
		execshell.WithCommandEventObserver(nil),
		execshell.WithCommandEventObserver(secondaryObserver),
	)
	require.NoError(testInstance, creationError)

	_, mergeError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"merge", "develop"}, WorkingDirectory: testProjectDirectoryConstant})
	var failedError execshell.CommandFailedError
	require.ErrorAs(testInstance, mergeError, &failedError)
	require.Equal(testInstance, "git merge develop failed with exit code 1: "+testMergeConflictConstant, failedError.Error())

	require.Len(testInstance, events, 2)
	require.Equal(testInstance, execshell.CommandStageStarted, events[0].Stage)
	require.Equal(testInstance, execshell.CommandStageCompleted, events[1].Stage)
	require.Equal(testInstance, 1, events[1].Result.ExitCode)
	require.False(testInstance, events[1].Succeeded())

	runner.failure = errors.New("missing binary")
	_, syncError := executor.ExecuteRepo(context.Background(), execshell.CommandDetails{Arguments: []string{"sync"}, WorkingDirectory: testTopologyDirectoryConstant})
	require.ErrorIs(testInstance, syncError, runner.failure)

	require.Len(testInstance, events, 4)
	require.Equal(testInstance, execshell.CommandStageExecutionFailed, events[3].Stage)
	require.ErrorIs(testInstance, events[3].Failure, runner.failure)
	require.Equal(testInstance, execshell.CommandRepo, events[3].Command.Name)
	require.Equal(testInstance, []execshell.CommandStage{
		execshell.CommandStageStarted,
		execshell.CommandStageCompleted,
		execshell.CommandStageStarted,
		execshell.CommandStageExecutionFailed,
	}, secondaryStages)
}
