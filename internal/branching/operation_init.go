package branching

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/gitrepo"
)

const (
	initOperationNameConstant     = "init"
	mainBranchNameConstant        = "main"
	initializingMessageConstant   = "Initializing git flow"
	logFieldRepositoryConstant    = "repository"
	trackingBranchMessageConstant = "Set tracking branch"
)

// InitOperation establishes git-flow branch conventions.
type InitOperation struct{}

// Name identifies the operation.
func (InitOperation) Name() string {
	return initOperationNameConstant
}

// RunSingleRepository initializes git flow in the repository.
func (InitOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	return environment.GitFlow.Init(executionContext, environment.Topology.Root)
}

// RunManifest initializes the manifest repository and then every unlocked project.
func (operation InitOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	manifestDirectory := environment.manifestDirectory()
	manifestBranch, branchError := environment.Git.CurrentBranch(executionContext, manifestDirectory)
	if branchError != nil {
		return branchError
	}

	if initError := operation.initializeRepository(executionContext, environment, repositoryConventions{
		path:           manifestDirectory,
		remote:         environment.manifestRemote(),
		checkoutBranch: manifestBranch,
	}); initError != nil {
		return initError
	}

	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	for _, project := range loaded.Projects {
		if !environment.operatingOn(project) {
			continue
		}
		checkoutBranch := manifestBranch
		if parsedBranch, parseError := ParseBranchName(manifestBranch); parseError == nil {
			checkoutBranch = ProjectBranchName(parsedBranch, project)
		}
		if initError := operation.initializeRepository(executionContext, environment, repositoryConventions{
			path:               environment.projectDirectory(project),
			remote:             project.Remote,
			alternativeMaster:  project.AlternativeMaster,
			alternativeDevelop: project.AlternativeDevelop,
			checkoutBranch:     checkoutBranch,
		}); initError != nil {
			return initError
		}
	}
	return nil
}

type repositoryConventions struct {
	path               string
	remote             string
	alternativeMaster  string
	alternativeDevelop string
	checkoutBranch     string
}

func (operation InitOperation) initializeRepository(executionContext context.Context, environment *Environment, conventions repositoryConventions) error {
	environment.logger().Info(initializingMessageConstant, zap.String(logFieldRepositoryConstant, conventions.path))

	remoteBranches, remoteError := environment.Git.RemoteBranches(executionContext, conventions.path, conventions.remote)
	if remoteError != nil {
		return remoteError
	}

	masterBranch := conventions.alternativeMaster
	if len(masterBranch) == 0 {
		masterBranch = BranchTypeMaster.String()
		if slices.Contains(remoteBranches, mainBranchNameConstant) {
			masterBranch = mainBranchNameConstant
		}
	}
	developBranch := conventions.alternativeDevelop
	if len(developBranch) == 0 {
		developBranch = BranchTypeDevelop.String()
	}

	for _, primary := range []struct {
		role   BranchType
		branch string
	}{
		{role: BranchTypeMaster, branch: masterBranch},
		{role: BranchTypeDevelop, branch: developBranch},
	} {
		if configError := environment.GitFlow.SetPrimaryBranch(executionContext, conventions.path, primary.role.String(), primary.branch); configError != nil {
			return configError
		}
		if ensureError := operation.ensureBranch(executionContext, environment, conventions.path, conventions.remote, primary.branch, remoteBranches); ensureError != nil {
			return ensureError
		}
	}

	if initError := environment.GitFlow.Init(executionContext, conventions.path); initError != nil {
		return initError
	}
	if len(conventions.checkoutBranch) == 0 {
		return nil
	}
	if switchError := environment.Git.SwitchForceCreate(executionContext, conventions.path, conventions.checkoutBranch, ""); switchError != nil {
		return switchError
	}
	if !slices.Contains(remoteBranches, conventions.checkoutBranch) {
		return nil
	}
	environment.logger().Debug(trackingBranchMessageConstant, zap.String(logFieldBranchConstant, conventions.checkoutBranch))
	return environment.Git.SetUpstream(executionContext, conventions.path, conventions.checkoutBranch, gitrepo.RemoteReference(conventions.remote, conventions.checkoutBranch))
}

// ensureBranch creates or tracks the branch and always returns the repository to its prior position.
func (InitOperation) ensureBranch(executionContext context.Context, environment *Environment, repositoryPath string, remoteName string, branchName string, remoteBranches []string) (ensureError error) {
	restore, captureError := capturePosition(executionContext, environment.Git, repositoryPath)
	if captureError != nil {
		return captureError
	}
	defer func() {
		ensureError = errors.Join(ensureError, restore(executionContext))
	}()

	localExists, localError := environment.localBranchExists(executionContext, repositoryPath, branchName)
	if localError != nil {
		return localError
	}
	remoteExists := slices.Contains(remoteBranches, branchName)
	remoteReference := gitrepo.RemoteReference(remoteName, branchName)

	switch {
	case localExists:
		if checkoutError := environment.Git.Checkout(executionContext, repositoryPath, branchName); checkoutError != nil {
			return checkoutError
		}
		if remoteExists {
			return environment.Git.SetUpstream(executionContext, repositoryPath, branchName, remoteReference)
		}
		return nil
	case remoteExists:
		return environment.Git.CheckoutTrackingBranch(executionContext, repositoryPath, branchName, remoteReference)
	default:
		return environment.Git.CheckoutNewBranch(executionContext, repositoryPath, branchName, "")
	}
}

// capturePosition records the current branch, or the commit when HEAD is detached,
// and returns the action that checks it out again.
func capturePosition(executionContext context.Context, git GitOperations, repositoryPath string) (func(context.Context) error, error) {
	currentBranch, branchError := git.CurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return nil, branchError
	}
	if len(currentBranch) > 0 {
		return func(restoreContext context.Context) error {
			return git.Checkout(restoreContext, repositoryPath, currentBranch)
		}, nil
	}
	headCommit, commitError := git.HeadCommit(executionContext, repositoryPath)
	if commitError != nil {
		return nil, commitError
	}
	return func(restoreContext context.Context) error {
		return git.CheckoutDetached(restoreContext, repositoryPath, headCommit)
	}, nil
}
