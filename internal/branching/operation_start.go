package branching

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	startOperationNameConstant            = "start"
	branchExistsMessageTemplateConstant   = "Branch %s already exists and can't be started."
	startMarkerCommitTemplateConstant     = "Starting %s"
	startCompletedMessageTemplateConstant = "Started %s"
)

// StartOperation creates a parametric branch from a base across the topology.
type StartOperation struct {
	Branch Branch
	Base   string
}

// Name identifies the operation.
func (StartOperation) Name() string {
	return startOperationNameConstant
}

// RunSingleRepository initializes git flow and delegates branch creation to it.
func (operation StartOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	if initError := (InitOperation{}).RunSingleRepository(executionContext, environment); initError != nil {
		return initError
	}
	return environment.GitFlow.Start(executionContext, environment.Topology.Root, operation.Branch.Type().String(), operation.Branch.Suffix(), operation.Base)
}

// RunManifest pulls the base, branches every unlocked project, then creates and publishes
// the branch in the manifest with an empty marker commit.
func (operation StartOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	if initializationError := environment.requireInitialized(executionContext); initializationError != nil {
		return initializationError
	}

	manifestDirectory := environment.manifestDirectory()
	branchName := operation.Branch.Name()
	if existsError := operation.ensureAbsent(executionContext, environment, manifestDirectory, branchName); existsError != nil {
		return existsError
	}

	baseBranch, baseError := resolveBaseBranch(executionContext, environment, operation.Base)
	if baseError != nil {
		return baseError
	}
	if pullError := (PullOperation{Branch: baseBranch}).RunManifest(executionContext, environment); pullError != nil {
		return pullError
	}

	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	for _, project := range loaded.Projects {
		if !environment.operatingOn(project) {
			continue
		}
		if createError := environment.Git.CheckoutNewBranch(executionContext, environment.projectDirectory(project), ProjectBranchName(operation.Branch, project), ""); createError != nil {
			return createError
		}
	}

	if createError := environment.Git.CheckoutNewBranch(executionContext, manifestDirectory, branchName, ""); createError != nil {
		return createError
	}
	if commitError := environment.Git.Commit(executionContext, manifestDirectory, fmt.Sprintf(startMarkerCommitTemplateConstant, branchName), true); commitError != nil {
		return commitError
	}
	if pushError := environment.Git.Push(executionContext, manifestDirectory, environment.manifestRemote(), branchName, true); pushError != nil {
		return pushError
	}
	environment.logger().Info(fmt.Sprintf(startCompletedMessageTemplateConstant, branchName))
	return nil
}

// ensureAbsent is advisory: a branch created concurrently after the check is not detected.
func (StartOperation) ensureAbsent(executionContext context.Context, environment *Environment, manifestDirectory string, branchName string) error {
	localBranches, localError := environment.Git.LocalBranches(executionContext, manifestDirectory)
	if localError != nil {
		return localError
	}
	remoteBranches, remoteError := environment.Git.RemoteBranches(executionContext, manifestDirectory, environment.manifestRemote())
	if remoteError != nil {
		return remoteError
	}
	if slices.Contains(localBranches, branchName) || slices.Contains(remoteBranches, branchName) {
		return ResolutionError{Reference: branchName, Message: fmt.Sprintf(branchExistsMessageTemplateConstant, branchName)}
	}
	return nil
}

// resolveBaseBranch accepts a full branch name or a bare type. A bare parametric type takes
// its suffix from the current manifest branch.
func resolveBaseBranch(executionContext context.Context, environment *Environment, base string) (Branch, error) {
	trimmedBase := strings.TrimSpace(base)
	if strings.Contains(trimmedBase, branchNameSeparatorConstant) {
		return ParseBranchName(trimmedBase)
	}
	baseType, typeError := ParseBranchType(trimmedBase)
	if typeError != nil {
		return Branch{}, typeError
	}
	return ResolveBranch(executionContext, environment, baseType, "")
}
