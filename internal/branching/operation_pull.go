package branching

import (
	"context"
	"errors"

	"github.com/temirov/sc/internal/reposync"
)

const (
	pullOperationNameConstant = "pull"
	noRemotesMessageConstant  = "repository has no remotes"
)

// ErrNoRemotes indicates a single repository without any configured remote.
var ErrNoRemotes = errors.New(noRemotesMessageConstant)

// PullOperation brings the topology up to date with the remote state of a branch.
type PullOperation struct {
	Branch Branch
}

// Name identifies the operation.
func (PullOperation) Name() string {
	return pullOperationNameConstant
}

// RunSingleRepository pulls the branch from the first remote.
func (operation PullOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	remoteName, remoteError := firstRemote(executionContext, environment, environment.Topology.Root)
	if remoteError != nil {
		return remoteError
	}
	return environment.Git.Pull(executionContext, environment.Topology.Root, remoteName, operation.Branch.Name())
}

// RunManifest pulls the manifest branch, syncs the topology, reapplies the git-flow
// conventions, and moves every unlocked project branch onto its manifest revision.
func (operation PullOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	if initializationError := environment.requireInitialized(executionContext); initializationError != nil {
		return initializationError
	}
	if checkoutError := checkoutManifestBranch(executionContext, environment, operation.Branch); checkoutError != nil {
		return checkoutError
	}
	if pullError := environment.Git.Pull(executionContext, environment.manifestDirectory(), environment.manifestRemote(), operation.Branch.Name()); pullError != nil {
		return pullError
	}

	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	if syncError := environment.Synchronizer.Sync(executionContext, environment.Topology.Root, reposync.SyncOptions{Detach: true}); syncError != nil {
		return syncError
	}
	if initError := (InitOperation{}).RunManifest(executionContext, environment); initError != nil {
		return initError
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
		if localExists {
			if checkoutError := environment.Git.Checkout(executionContext, projectDirectory, projectBranch); checkoutError != nil {
				return checkoutError
			}
			if mergeError := environment.Git.Merge(executionContext, projectDirectory, project.Revision); mergeError != nil {
				return mergeError
			}
		} else if createError := environment.Git.CheckoutNewBranch(executionContext, projectDirectory, projectBranch, project.Revision); createError != nil {
			return createError
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

func firstRemote(executionContext context.Context, environment *Environment, repositoryPath string) (string, error) {
	remotes, remotesError := environment.Git.Remotes(executionContext, repositoryPath)
	if remotesError != nil {
		return "", remotesError
	}
	if len(remotes) == 0 {
		return "", ErrNoRemotes
	}
	return remotes[0], nil
}
