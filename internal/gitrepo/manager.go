package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/sc/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"
	repositoryPathRequiredMessageConstant   = "repository path must be provided"

	gitTerminalPromptEnvironmentNameConstant  = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant    = "0"
	gitMergeAutoEditEnvironmentNameConstant   = "GIT_MERGE_AUTOEDIT"
	gitMergeAutoEditDisabledValueConstant     = "no"
	gitFetchSubcommandConstant                = "fetch"
	gitCheckoutSubcommandConstant             = "checkout"
	gitSwitchSubcommandConstant               = "switch"
	gitBranchSubcommandConstant               = "branch"
	gitMergeSubcommandConstant                = "merge"
	gitPullSubcommandConstant                 = "pull"
	gitPushSubcommandConstant                 = "push"
	gitTagSubcommandConstant                  = "tag"
	gitForEachRefSubcommandConstant           = "for-each-ref"
	gitRemoteSubcommandConstant               = "remote"
	gitLSRemoteSubcommandConstant             = "ls-remote"
	gitRevParseSubcommandConstant             = "rev-parse"
	gitConfigSubcommandConstant               = "config"
	gitAddSubcommandConstant                  = "add"
	gitStatusSubcommandConstant               = "status"
	gitCommitSubcommandConstant               = "commit"
	gitCleanSubcommandConstant                = "clean"
	gitResetSubcommandConstant                = "reset"
	gitLFSSubcommandConstant                  = "lfs"
	gitCreateBranchFlagConstant               = "-b"
	gitTrackFlagConstant                      = "--track"
	gitDetachFlagConstant                     = "--detach"
	gitSwitchCreateFlagConstant               = "-c"
	gitSwitchForceCreateFlagConstant          = "-C"
	gitSetUpstreamFlagConstant                = "--set-upstream-to"
	gitPushUpstreamFlagConstant               = "-u"
	gitTagsFlagConstant                       = "--tags"
	gitTagDeleteFlagConstant                  = "-d"
	gitRemoteBranchesFlagConstant             = "-r"
	gitContainsFlagConstant                   = "--contains"
	gitRefnameFormatFlagConstant              = "--format=%(refname)"
	gitHeadsFlagConstant                      = "--heads"
	gitAbbrevRefFlagConstant                  = "--abbrev-ref"
	gitConfigGetFlagConstant                  = "--get"
	gitAllFlagConstant                        = "-A"
	gitPorcelainFlagConstant                  = "--porcelain"
	gitAllowEmptyFlagConstant                 = "--allow-empty"
	gitMessageFlagConstant                    = "-m"
	gitCleanFlagsConstant                     = "-fdx"
	gitCleanExcludeFlagConstant               = "-e"
	gitHardFlagConstant                       = "--hard"
	gitHeadReferenceConstant                  = "HEAD"
	gitLocalHeadsNamespaceConstant            = "refs/heads/"
	gitRemoteNamespaceTemplateConstant        = "refs/remotes/%s/"
	gitRemoteReferenceTemplateConstant        = "%s/%s"
	gitLFSFetchCommandConstant                = "fetch"
	gitLFSCheckoutCommandConstant             = "checkout"
	gitConfigMissingExitCodeConstant          = 1
	lsRemoteFieldSeparatorConstant            = "\t"
	fetchFailureTemplateConstant              = "failed to fetch in %s: %w"
	checkoutFailureTemplateConstant           = "failed to check out %s in %s: %w"
	switchFailureTemplateConstant             = "failed to switch to %s in %s: %w"
	upstreamFailureTemplateConstant           = "failed to set upstream of %s to %s in %s: %w"
	mergeFailureTemplateConstant              = "failed to merge %s in %s: %w"
	pullFailureTemplateConstant               = "failed to pull in %s: %w"
	pushFailureTemplateConstant               = "failed to push %s from %s: %w"
	pushTagsFailureTemplateConstant           = "failed to push tags from %s: %w"
	deleteTagFailureTemplateConstant          = "failed to delete tag %s in %s: %w"
	remoteContainsFailureTemplateConstant     = "failed to inspect remote branches containing %s in %s: %w"
	listBranchesFailureTemplateConstant       = "failed to list branches in %s: %w"
	listRemotesFailureTemplateConstant        = "failed to list remotes in %s: %w"
	listRemoteHeadsFailureTemplateConstant    = "failed to list branches of %s from %s: %w"
	resolveReferenceFailureTemplateConstant   = "failed to resolve %s in %s: %w"
	configReadFailureTemplateConstant         = "failed to read git config %s in %s: %w"
	configWriteFailureTemplateConstant        = "failed to write git config %s in %s: %w"
	stageFailureTemplateConstant              = "failed to stage changes in %s: %w"
	statusFailureTemplateConstant             = "failed to read status of %s: %w"
	commitFailureTemplateConstant             = "failed to commit in %s: %w"
	cleanFailureTemplateConstant              = "failed to clean %s: %w"
	resetFailureTemplateConstant              = "failed to reset %s to %s: %w"
	largeFileRefreshFailureTemplateConstant   = "failed to refresh large files in %s: %w"
	currentBranchFailureTemplateConstant      = "failed to identify current branch in %s: %w"
	remoteNameSeparatorConstant               = "/"
	lineSeparatorConstant                     = "\n"
	remoteContainsCurrentMarkerPrefixConstant = "* "
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager exposes the version-control primitives used by branch orchestration.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Fetch runs git fetch. An empty remote fetches the configured default.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string, remoteName string, references ...string) error {
	arguments := []string{gitFetchSubcommandConstant}
	if trimmedRemote := strings.TrimSpace(remoteName); len(trimmedRemote) > 0 {
		arguments = append(arguments, trimmedRemote)
		arguments = append(arguments, references...)
	}
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(fetchFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// Checkout checks out an existing branch, tag, or commit.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, reference string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, reference); executionError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, reference, repositoryPath, executionError)
	}
	return nil
}

// CheckoutNewBranch creates and checks out a branch. An empty start point uses HEAD.
func (manager *RepositoryManager) CheckoutNewBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	arguments := []string{gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branchName}
	if len(strings.TrimSpace(startPoint)) > 0 {
		arguments = append(arguments, startPoint)
	}
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// CheckoutTrackingBranch creates a local branch tracking the remote reference.
func (manager *RepositoryManager) CheckoutTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, remoteReference string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branchName, gitTrackFlagConstant, remoteReference); executionError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// CheckoutDetached detaches HEAD at the given commit.
func (manager *RepositoryManager) CheckoutDetached(executionContext context.Context, repositoryPath string, commit string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitDetachFlagConstant, commit); executionError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, commit, repositoryPath, executionError)
	}
	return nil
}

// Switch switches to an existing local branch.
func (manager *RepositoryManager) Switch(executionContext context.Context, repositoryPath string, branchName string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitSwitchSubcommandConstant, branchName); executionError != nil {
		return fmt.Errorf(switchFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// SwitchCreate creates a branch at HEAD and switches to it.
func (manager *RepositoryManager) SwitchCreate(executionContext context.Context, repositoryPath string, branchName string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitSwitchSubcommandConstant, gitSwitchCreateFlagConstant, branchName); executionError != nil {
		return fmt.Errorf(switchFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// SwitchForceCreate creates or resets a branch at the start point and switches to it.
func (manager *RepositoryManager) SwitchForceCreate(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	arguments := []string{gitSwitchSubcommandConstant, gitSwitchForceCreateFlagConstant, branchName}
	if len(strings.TrimSpace(startPoint)) > 0 {
		arguments = append(arguments, startPoint)
	}
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(switchFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// SetUpstream configures the upstream of a local branch.
func (manager *RepositoryManager) SetUpstream(executionContext context.Context, repositoryPath string, branchName string, remoteReference string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitSetUpstreamFlagConstant, remoteReference, branchName); executionError != nil {
		return fmt.Errorf(upstreamFailureTemplateConstant, branchName, remoteReference, repositoryPath, executionError)
	}
	return nil
}

// Merge merges the reference into the current branch.
func (manager *RepositoryManager) Merge(executionContext context.Context, repositoryPath string, reference string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitMergeSubcommandConstant, reference); executionError != nil {
		return fmt.Errorf(mergeFailureTemplateConstant, reference, repositoryPath, executionError)
	}
	return nil
}

// Pull pulls the branch from the remote. Empty values fall back to the configured upstream.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	arguments := []string{gitPullSubcommandConstant}
	if trimmedRemote := strings.TrimSpace(remoteName); len(trimmedRemote) > 0 {
		arguments = append(arguments, trimmedRemote)
		if trimmedBranch := strings.TrimSpace(branchName); len(trimmedBranch) > 0 {
			arguments = append(arguments, trimmedBranch)
		}
	}
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(pullFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// Push pushes the branch to the remote, optionally recording it as upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error {
	arguments := []string{gitPushSubcommandConstant}
	if setUpstream {
		arguments = append(arguments, gitPushUpstreamFlagConstant)
	}
	arguments = append(arguments, remoteName, branchName)
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, branchName, repositoryPath, executionError)
	}
	return nil
}

// PushTags pushes every local tag to the default remote.
func (manager *RepositoryManager) PushTags(executionContext context.Context, repositoryPath string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitPushSubcommandConstant, gitTagsFlagConstant); executionError != nil {
		return fmt.Errorf(pushTagsFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// DeleteTag deletes a local tag.
func (manager *RepositoryManager) DeleteTag(executionContext context.Context, repositoryPath string, tagName string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitTagSubcommandConstant, gitTagDeleteFlagConstant, tagName); executionError != nil {
		return fmt.Errorf(deleteTagFailureTemplateConstant, tagName, repositoryPath, executionError)
	}
	return nil
}

// RemoteContains reports whether any remote-tracking branch of the remote contains the commit.
func (manager *RepositoryManager) RemoteContains(executionContext context.Context, repositoryPath string, remoteName string, commit string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitRemoteBranchesFlagConstant, gitContainsFlagConstant, commit)
	if executionError != nil {
		return false, fmt.Errorf(remoteContainsFailureTemplateConstant, commit, repositoryPath, executionError)
	}
	remotePrefix := remoteName + remoteNameSeparatorConstant
	for _, line := range splitLines(result.StandardOutput) {
		if strings.HasPrefix(strings.TrimPrefix(line, remoteContainsCurrentMarkerPrefixConstant), remotePrefix) {
			return true, nil
		}
	}
	return false, nil
}

// LocalBranches lists local branch names.
func (manager *RepositoryManager) LocalBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listReferences(executionContext, repositoryPath, gitLocalHeadsNamespaceConstant)
}

// RemoteBranches lists branch names of the remote's tracking references, without the remote prefix.
func (manager *RepositoryManager) RemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	return manager.listReferences(executionContext, repositoryPath, fmt.Sprintf(gitRemoteNamespaceTemplateConstant, remoteName))
}

// Remotes lists configured remote names.
func (manager *RepositoryManager) Remotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if executionError != nil {
		return nil, fmt.Errorf(listRemotesFailureTemplateConstant, repositoryPath, executionError)
	}
	return splitLines(result.StandardOutput), nil
}

// RemoteHeads queries the remote for its branch names.
func (manager *RepositoryManager) RemoteHeads(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitLSRemoteSubcommandConstant, gitHeadsFlagConstant, remoteName)
	if executionError != nil {
		return nil, fmt.Errorf(listRemoteHeadsFailureTemplateConstant, remoteName, repositoryPath, executionError)
	}
	branches := make([]string, 0)
	for _, line := range splitLines(result.StandardOutput) {
		fields := strings.SplitN(line, lsRemoteFieldSeparatorConstant, 2)
		if len(fields) != 2 {
			continue
		}
		if branchName := strings.TrimPrefix(strings.TrimSpace(fields[1]), gitLocalHeadsNamespaceConstant); len(branchName) > 0 {
			branches = append(branches, branchName)
		}
	}
	return branches, nil
}

// CurrentBranch returns the checked-out branch name, or an empty string when HEAD is detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", fmt.Errorf(currentBranchFailureTemplateConstant, repositoryPath, executionError)
	}
	branchName := strings.TrimSpace(result.StandardOutput)
	if branchName == gitHeadReferenceConstant {
		return "", nil
	}
	return branchName, nil
}

// HeadCommit resolves HEAD to a commit hash.
func (manager *RepositoryManager) HeadCommit(executionContext context.Context, repositoryPath string) (string, error) {
	return manager.resolve(executionContext, repositoryPath, gitHeadReferenceConstant)
}

// BranchCommit resolves a local branch to a commit hash.
func (manager *RepositoryManager) BranchCommit(executionContext context.Context, repositoryPath string, branchName string) (string, error) {
	return manager.resolve(executionContext, repositoryPath, gitLocalHeadsNamespaceConstant+branchName)
}

// GetConfig reads a git config value. The boolean reports whether the key is set.
func (manager *RepositoryManager) GetConfig(executionContext context.Context, repositoryPath string, key string) (string, bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitConfigSubcommandConstant, gitConfigGetFlagConstant, key)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) && failedError.Result.ExitCode == gitConfigMissingExitCodeConstant {
			return "", false, nil
		}
		return "", false, fmt.Errorf(configReadFailureTemplateConstant, key, repositoryPath, executionError)
	}
	return strings.TrimSpace(result.StandardOutput), true, nil
}

// SetConfig writes a git config value in the repository scope.
func (manager *RepositoryManager) SetConfig(executionContext context.Context, repositoryPath string, key string, value string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitConfigSubcommandConstant, key, value); executionError != nil {
		return fmt.Errorf(configWriteFailureTemplateConstant, key, repositoryPath, executionError)
	}
	return nil
}

// StageAll stages every change in the working tree.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitAddSubcommandConstant, gitAllFlagConstant); executionError != nil {
		return fmt.Errorf(stageFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// HasChanges reports whether the working tree or index differs from HEAD.
func (manager *RepositoryManager) HasChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, fmt.Errorf(statusFailureTemplateConstant, repositoryPath, executionError)
	}
	return len(strings.TrimSpace(result.StandardOutput)) > 0, nil
}

// Commit records a commit with the message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, message string, allowEmpty bool) error {
	arguments := []string{gitCommitSubcommandConstant}
	if allowEmpty {
		arguments = append(arguments, gitAllowEmptyFlagConstant)
	}
	arguments = append(arguments, gitMessageFlagConstant, message)
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(commitFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// Clean removes untracked and ignored files except the excluded patterns.
func (manager *RepositoryManager) Clean(executionContext context.Context, repositoryPath string, excludedPatterns []string) error {
	arguments := []string{gitCleanSubcommandConstant, gitCleanFlagsConstant}
	for _, excludedPattern := range excludedPatterns {
		if trimmedPattern := strings.TrimSpace(excludedPattern); len(trimmedPattern) > 0 {
			arguments = append(arguments, gitCleanExcludeFlagConstant, trimmedPattern)
		}
	}
	if _, executionError := manager.run(executionContext, repositoryPath, arguments...); executionError != nil {
		return fmt.Errorf(cleanFailureTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// HardReset resets the working tree and current branch to the revision.
func (manager *RepositoryManager) HardReset(executionContext context.Context, repositoryPath string, revision string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant, revision); executionError != nil {
		return fmt.Errorf(resetFailureTemplateConstant, repositoryPath, revision, executionError)
	}
	return nil
}

// Status returns the human-readable working tree status.
func (manager *RepositoryManager) Status(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant)
	if executionError != nil {
		return "", fmt.Errorf(statusFailureTemplateConstant, repositoryPath, executionError)
	}
	return result.StandardOutput, nil
}

// RefreshLargeFiles fetches and checks out large-file payloads for the current checkout.
func (manager *RepositoryManager) RefreshLargeFiles(executionContext context.Context, repositoryPath string) error {
	for _, lfsCommand := range []string{gitLFSFetchCommandConstant, gitLFSCheckoutCommandConstant} {
		if _, executionError := manager.run(executionContext, repositoryPath, gitLFSSubcommandConstant, lfsCommand); executionError != nil {
			return fmt.Errorf(largeFileRefreshFailureTemplateConstant, repositoryPath, executionError)
		}
	}
	return nil
}

// RemoteReference joins a remote and a branch into a remote-tracking reference name.
func RemoteReference(remoteName string, branchName string) string {
	return fmt.Sprintf(gitRemoteReferenceTemplateConstant, remoteName, branchName)
}

func (manager *RepositoryManager) listReferences(executionContext context.Context, repositoryPath string, namespace string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitRefnameFormatFlagConstant, namespace)
	if executionError != nil {
		return nil, fmt.Errorf(listBranchesFailureTemplateConstant, repositoryPath, executionError)
	}
	branches := make([]string, 0)
	for _, line := range splitLines(result.StandardOutput) {
		branchName := strings.TrimPrefix(line, namespace)
		if branchName == line || branchName == gitHeadReferenceConstant || len(branchName) == 0 {
			continue
		}
		branches = append(branches, branchName)
	}
	return branches, nil
}

func (manager *RepositoryManager) resolve(executionContext context.Context, repositoryPath string, reference string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, reference)
	if executionError != nil {
		return "", fmt.Errorf(resolveReferenceFailureTemplateConstant, reference, repositoryPath, executionError)
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return execshell.ExecutionResult{}, ErrRepositoryPathRequired
	}
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: trimmedPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptDisabledValueConstant,
			gitMergeAutoEditEnvironmentNameConstant:  gitMergeAutoEditDisabledValueConstant,
		},
	})
}

func splitLines(output string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		if trimmedLine := strings.TrimSpace(line); len(trimmedLine) > 0 {
			lines = append(lines, trimmedLine)
		}
	}
	return lines
}
