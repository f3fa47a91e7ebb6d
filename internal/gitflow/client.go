package gitflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/sc/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant    = "git executor not configured"
	configAccessorNotConfiguredMessageConstant = "git config accessor not configured"

	gitFlowSubcommandConstant                = "flow"
	gitFlowInitCommandConstant               = "init"
	gitFlowStartCommandConstant              = "start"
	gitFlowFinishCommandConstant             = "finish"
	gitFlowCheckoutCommandConstant           = "checkout"
	gitFlowDefaultsFlagConstant              = "-d"
	gitFlowKeepFlagConstant                  = "-k"
	gitFlowMessageFlagConstant               = "-m"
	gitFlowMasterBranchKeyConstant           = "gitflow.branch.master"
	gitFlowDevelopBranchKeyConstant          = "gitflow.branch.develop"
	gitFlowBranchKeyTemplateConstant         = "gitflow.branch.%s"
	gitFlowBranchBaseKeyTemplateConstant     = "gitflow.branch.%s.base"
	gitMergeAutoEditEnvironmentNameConstant  = "GIT_MERGE_AUTOEDIT"
	gitMergeAutoEditDisabledValueConstant    = "no"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"

	initFailureTemplateConstant               = "git flow init failed in %s: %w"
	startFailureTemplateConstant              = "git flow %s start %s failed in %s: %w"
	finishFailureTemplateConstant             = "git flow %s finish %s failed in %s: %w"
	checkoutFailureTemplateConstant           = "git flow %s checkout %s failed in %s: %w"
	branchBaseReadFailureTemplateConstant     = "failed to read base of %s in %s: %w"
	branchBaseWriteFailureTemplateConstant    = "failed to record base %s for %s in %s: %w"
	primaryBranchReadFailureTemplateConstant  = "failed to read git flow %s branch in %s: %w"
	primaryBranchWriteFailureTemplateConstant = "failed to configure git flow %s branch in %s: %w"
)

// ErrGitExecutorNotConfigured indicates the client was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// ErrConfigAccessorNotConfigured indicates the client was constructed without a config accessor.
var ErrConfigAccessorNotConfigured = errors.New(configAccessorNotConfiguredMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ConfigAccessor reads and writes repository-scoped git config.
type ConfigAccessor interface {
	GetConfig(executionContext context.Context, repositoryPath string, key string) (string, bool, error)
	SetConfig(executionContext context.Context, repositoryPath string, key string, value string) error
}

// FinishOptions configure a git flow finish invocation.
type FinishOptions struct {
	BranchType string
	Name       string
	KeepBranch bool
	TagMessage string
}

// Client drives the git-flow extension and its git config conventions.
type Client struct {
	executor      GitExecutor
	configuration ConfigAccessor
}

// NewClient constructs a Client.
func NewClient(executor GitExecutor, configuration ConfigAccessor) (*Client, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if configuration == nil {
		return nil, ErrConfigAccessorNotConfigured
	}
	return &Client{executor: executor, configuration: configuration}, nil
}

// Init initializes git flow with default prefixes, honoring already configured branch names.
func (client *Client) Init(executionContext context.Context, repositoryPath string) error {
	if _, executionError := client.run(executionContext, repositoryPath, gitFlowSubcommandConstant, gitFlowInitCommandConstant, gitFlowDefaultsFlagConstant); executionError != nil {
		return fmt.Errorf(initFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// Start creates a branch of the given type. An empty base lets git flow choose its default.
func (client *Client) Start(executionContext context.Context, repositoryPath string, branchType string, name string, base string) error {
	arguments := []string{gitFlowSubcommandConstant, branchType, gitFlowStartCommandConstant, name}
	if trimmedBase := strings.TrimSpace(base); len(trimmedBase) > 0 {
		arguments = append(arguments, trimmedBase)
	}
	if _, executionError := client.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(startFailureTemplateConstant, branchType, name, repositoryPath, executionError)
	}
	return nil
}

// Finish merges the branch back into its targets and tags it when the type carries tags.
func (client *Client) Finish(executionContext context.Context, repositoryPath string, options FinishOptions) error {
	arguments := []string{gitFlowSubcommandConstant, options.BranchType, gitFlowFinishCommandConstant}
	if options.KeepBranch {
		arguments = append(arguments, gitFlowKeepFlagConstant)
	}
	if len(options.TagMessage) > 0 {
		arguments = append(arguments, gitFlowMessageFlagConstant, options.TagMessage)
	}
	arguments = append(arguments, options.Name)
	if _, executionError := client.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(finishFailureTemplateConstant, options.BranchType, options.Name, repositoryPath, executionError)
	}
	return nil
}

// Checkout switches to an existing branch of the given type.
func (client *Client) Checkout(executionContext context.Context, repositoryPath string, branchType string, name string) error {
	if _, executionError := client.run(executionContext, repositoryPath, gitFlowSubcommandConstant, branchType, gitFlowCheckoutCommandConstant, name); executionError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branchType, name, repositoryPath, executionError)
	}
	return nil
}

// SetBranchBase records the branch the given branch was started from.
func (client *Client) SetBranchBase(executionContext context.Context, repositoryPath string, branchName string, base string) error {
	if configError := client.configuration.SetConfig(executionContext, repositoryPath, fmt.Sprintf(gitFlowBranchBaseKeyTemplateConstant, branchName), base); configError != nil {
		return fmt.Errorf(branchBaseWriteFailureTemplateConstant, base, branchName, repositoryPath, configError)
	}
	return nil
}

// BranchBase returns the recorded base of the branch, or an empty string when none is recorded.
func (client *Client) BranchBase(executionContext context.Context, repositoryPath string, branchName string) (string, error) {
	base, _, configError := client.configuration.GetConfig(executionContext, repositoryPath, fmt.Sprintf(gitFlowBranchBaseKeyTemplateConstant, branchName))
	if configError != nil {
		return "", fmt.Errorf(branchBaseReadFailureTemplateConstant, branchName, repositoryPath, configError)
	}
	return base, nil
}

// SetPrimaryBranch records the local name used for the master or develop role.
func (client *Client) SetPrimaryBranch(executionContext context.Context, repositoryPath string, role string, branchName string) error {
	if configError := client.configuration.SetConfig(executionContext, repositoryPath, fmt.Sprintf(gitFlowBranchKeyTemplateConstant, role), branchName); configError != nil {
		return fmt.Errorf(primaryBranchWriteFailureTemplateConstant, role, repositoryPath, configError)
	}
	return nil
}

// DevelopBranch returns the configured develop branch, or an empty string when unset.
func (client *Client) DevelopBranch(executionContext context.Context, repositoryPath string) (string, error) {
	return client.primaryBranch(executionContext, repositoryPath, gitFlowDevelopBranchKeyConstant)
}

// MasterBranch returns the configured master branch, or an empty string when unset.
func (client *Client) MasterBranch(executionContext context.Context, repositoryPath string) (string, error) {
	return client.primaryBranch(executionContext, repositoryPath, gitFlowMasterBranchKeyConstant)
}

// IsEnabled reports whether both primary branches are configured.
func (client *Client) IsEnabled(executionContext context.Context, repositoryPath string) (bool, error) {
	masterBranch, masterError := client.MasterBranch(executionContext, repositoryPath)
	if masterError != nil {
		return false, masterError
	}
	developBranch, developError := client.DevelopBranch(executionContext, repositoryPath)
	if developError != nil {
		return false, developError
	}
	return len(masterBranch) > 0 && len(developBranch) > 0, nil
}

func (client *Client) primaryBranch(executionContext context.Context, repositoryPath string, key string) (string, error) {
	branchName, _, configError := client.configuration.GetConfig(executionContext, repositoryPath, key)
	if configError != nil {
		return "", fmt.Errorf(primaryBranchReadFailureTemplateConstant, key, repositoryPath, configError)
	}
	return branchName, nil
}

func (client *Client) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return client.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitMergeAutoEditEnvironmentNameConstant:  gitMergeAutoEditDisabledValueConstant,
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptDisabledValueConstant,
		},
	})
}
