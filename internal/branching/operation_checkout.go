package branching

import (
	"context"
	"fmt"

	"github.com/temirov/sc/internal/reposync"
)

const (
	checkoutOperationNameConstant              = "checkout"
	branchNotOnManifestMessageTemplateConstant = "Branch %s not found on manifest!"
)

// CheckoutOperation moves the topology onto an existing branch.
type CheckoutOperation struct {
	Branch Branch
	Force  bool
	Verify bool
}

// Name identifies the operation.
func (CheckoutOperation) Name() string {
	return checkoutOperationNameConstant
}

// RunSingleRepository checks the branch out in the repository.
func (operation CheckoutOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	if operation.Branch.Type().IsPrimary() {
		return environment.Git.Checkout(executionContext, environment.Topology.Root, operation.Branch.Name())
	}
	return environment.GitFlow.Checkout(executionContext, environment.Topology.Root, operation.Branch.Type().String(), operation.Branch.Suffix())
}

// RunManifest checks the branch out in the manifest, syncs the topology, and switches
// every unlocked project onto its name for the branch.
func (operation CheckoutOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	if initializationError := environment.requireInitialized(executionContext); initializationError != nil {
		return initializationError
	}
	if checkoutError := checkoutManifestBranch(executionContext, environment, operation.Branch); checkoutError != nil {
		return checkoutError
	}

	if syncError := environment.Synchronizer.Sync(executionContext, environment.Topology.Root, reposync.SyncOptions{
		ForceSync:     operation.Force,
		ForceCheckout: operation.Force,
		Verify:        operation.Verify,
		Detach:        true,
		NoPrune:       true,
	}); syncError != nil {
		return syncError
	}

	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	for _, project := range loaded.Projects {
		if !environment.operatingOn(project) {
			continue
		}
		projectDirectory := environment.projectDirectory(project)
		projectBranch := ProjectBranchName(operation.Branch, project)

		localExists, localError := environment.localBranchExists(executionContext, projectDirectory, projectBranch)
		if localError != nil {
			return localError
		}
		var switchError error
		if localExists {
			switchError = environment.Git.Switch(executionContext, projectDirectory, projectBranch)
		} else {
			switchError = environment.Git.SwitchCreate(executionContext, projectDirectory, projectBranch)
		}
		if switchError != nil {
			return switchError
		}
		if trackError := environment.trackRemoteBranch(executionContext, projectDirectory, project.Remote, projectBranch); trackError != nil {
			return trackError
		}
		if refreshError := environment.refreshLargeFiles(executionContext, projectDirectory); refreshError != nil {
			return refreshError
		}
	}
	return nil
}

// checkoutManifestBranch fetches the manifest and checks the branch out, reporting a missing
// branch as a resolution failure.
func checkoutManifestBranch(executionContext context.Context, environment *Environment, branch Branch) error {
	manifestDirectory := environment.manifestDirectory()
	if fetchError := environment.Git.Fetch(executionContext, manifestDirectory, environment.manifestRemote()); fetchError != nil {
		return fetchError
	}
	if checkoutError := environment.Git.Checkout(executionContext, manifestDirectory, branch.Name()); checkoutError != nil {
		environment.logger().Debug(checkoutError.Error())
		return ResolutionError{Reference: branch.Name(), Message: fmt.Sprintf(branchNotOnManifestMessageTemplateConstant, branch.Name())}
	}
	return nil
}
