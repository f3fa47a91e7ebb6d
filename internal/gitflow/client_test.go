package gitflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sc/internal/execshell"
)

const testRepositoryPathConstant = "/tmp/topology/.repo/manifests"

type stubGitExecutor struct {
	recorded []execshell.CommandDetails
	failure  error
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recorded = append(executor.recorded, details)
	if executor.failure != nil {
		return execshell.ExecutionResult{}, executor.failure
	}
	return execshell.ExecutionResult{}, nil
}

type stubConfigAccessor struct {
	values    map[string]string
	readError error
}

func (accessor *stubConfigAccessor) GetConfig(_ context.Context, _ string, key string) (string, bool, error) {
	if accessor.readError != nil {
		return "", false, accessor.readError
	}
	value, found := accessor.values[key]
	return value, found, nil
}

func (accessor *stubConfigAccessor) SetConfig(_ context.Context, _ string, key string, value string) error {
	if accessor.values == nil {
		accessor.values = map[string]string{}
	}
	accessor.values[key] = value
	return nil
}

func newTestClient(t *testing.T) (*Client, *stubGitExecutor, *stubConfigAccessor) {
	t.Helper()
	executor := &stubGitExecutor{}
	accessor := &stubConfigAccessor{}
	client, creationError := NewClient(executor, accessor)
	require.NoError(t, creationError)
	return client, executor, accessor
}

func TestNewClientValidatesDependencies(t *testing.T) {
	_, executorError := NewClient(nil, &stubConfigAccessor{})
	require.ErrorIs(t, executorError, ErrGitExecutorNotConfigured)

	_, accessorError := NewClient(&stubGitExecutor{}, nil)
	require.ErrorIs(t, accessorError, ErrConfigAccessorNotConfigured)
}

func TestClientBuildsFlowCommands(t *testing.T) {
	testCases := []struct {
		name     string
		invoke   func(client *Client) error
		expected []string
	}{
		{
			name: "init_with_defaults",
			invoke: func(client *Client) error {
				return client.Init(context.Background(), testRepositoryPathConstant)
			},
			expected: []string{"flow", "init", "-d"},
		},
		{
			name: "start_without_base",
			invoke: func(client *Client) error {
				return client.Start(context.Background(), testRepositoryPathConstant, "feature", "login", " ")
			},
			expected: []string{"flow", "feature", "start", "login"},
		},
		{
			name: "start_with_base",
			invoke: func(client *Client) error {
				return client.Start(context.Background(), testRepositoryPathConstant, "hotfix", "1.2.4", "release/1.2")
			},
			expected: []string{"flow", "hotfix", "start", "1.2.4", "release/1.2"},
		},
		{
			name: "finish_keep_with_message",
			invoke: func(client *Client) error {
				return client.Finish(context.Background(), testRepositoryPathConstant, FinishOptions{BranchType: "release", Name: "1.2.0", KeepBranch: true, TagMessage: "Release 1.2.0"})
			},
			expected: []string{"flow", "release", "finish", "-k", "-m", "Release 1.2.0", "1.2.0"},
		},
		{
			name: "finish_plain",
			invoke: func(client *Client) error {
				return client.Finish(context.Background(), testRepositoryPathConstant, FinishOptions{BranchType: "feature", Name: "login"})
			},
			expected: []string{"flow", "feature", "finish", "login"},
		},
		{
			name: "checkout",
			invoke: func(client *Client) error {
				return client.Checkout(context.Background(), testRepositoryPathConstant, "feature", "login")
			},
			expected: []string{"flow", "feature", "checkout", "login"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client, executor, _ := newTestClient(t)
			require.NoError(t, testCase.invoke(client))
			require.Len(t, executor.recorded, 1)
			require.Equal(t, testCase.expected, executor.recorded[0].Arguments)
			require.Equal(t, testRepositoryPathConstant, executor.recorded[0].WorkingDirectory)
			require.Equal(t, "no", executor.recorded[0].EnvironmentVariables["GIT_MERGE_AUTOEDIT"])
		})
	}
}

func TestClientTracksBranchConfiguration(t *testing.T) {
	client, _, accessor := newTestClient(t)
	executionContext := context.Background()

	enabled, enabledError := client.IsEnabled(executionContext, testRepositoryPathConstant)
	require.NoError(t, enabledError)
	require.False(t, enabled)

	require.NoError(t, client.SetPrimaryBranch(executionContext, testRepositoryPathConstant, "master", "main"))
	enabled, enabledError = client.IsEnabled(executionContext, testRepositoryPathConstant)
	require.NoError(t, enabledError)
	require.False(t, enabled)

	require.NoError(t, client.SetPrimaryBranch(executionContext, testRepositoryPathConstant, "develop", "develop"))
	enabled, enabledError = client.IsEnabled(executionContext, testRepositoryPathConstant)
	require.NoError(t, enabledError)
	require.True(t, enabled)

	masterBranch, masterError := client.MasterBranch(executionContext, testRepositoryPathConstant)
	require.NoError(t, masterError)
	require.Equal(t, "main", masterBranch)

	require.NoError(t, client.SetBranchBase(executionContext, testRepositoryPathConstant, "hotfix/1.2.4", "release/1.2"))
	require.Equal(t, "release/1.2", accessor.values["gitflow.branch.hotfix/1.2.4.base"])

	base, baseError := client.BranchBase(executionContext, testRepositoryPathConstant, "hotfix/1.2.4")
	require.NoError(t, baseError)
	require.Equal(t, "release/1.2", base)

	missingBase, missingError := client.BranchBase(executionContext, testRepositoryPathConstant, "hotfix/9.9.9")
	require.NoError(t, missingError)
	require.Empty(t, missingBase)
}

func TestClientWrapsFailures(t *testing.T) {
	failure := errors.New("not a gitflow-enabled repo")
	executor := &stubGitExecutor{failure: failure}
	accessor := &stubConfigAccessor{readError: failure}
	client, creationError := NewClient(executor, accessor)
	require.NoError(t, creationError)

	finishError := client.Finish(context.Background(), testRepositoryPathConstant, FinishOptions{BranchType: "hotfix", Name: "1.2.4"})
	require.ErrorIs(t, finishError, failure)
	require.Contains(t, finishError.Error(), "git flow hotfix finish 1.2.4 failed")

	_, enabledError := client.IsEnabled(context.Background(), testRepositoryPathConstant)
	require.ErrorIs(t, enabledError, failure)
}
