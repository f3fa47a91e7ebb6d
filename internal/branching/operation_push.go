package branching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/manifest"
)

const (
	pushOperationNameConstant               = "push"
	manifestCommitPromptConstant            = "Input commit message for manifest: "
	pushingBranchMessageTemplateConstant    = "Pushing branch %s"
	pushCompletedMessageTemplateConstant    = "Push %s completed!"
	branchMissingOnManifestTemplateConstant = "Branch %s doesn't exist on manifest!"
	tagOnlyPushMessageConstant              = "Lock status TAG_ONLY, pushing only tags."
	readOnlySkipMessageConstant             = "Project lock status READ_ONLY. Skipping."
	branchMissingSkipMessageConstant        = "Branch doesn't exist in project. Skipping."
	remoteContainsSkipMessageConstant       = "Remote already contains commit. Skipping."
	manifestUnchangedMessageConstant        = "Manifest revisions unchanged; nothing to commit."
)

// PushOperation publishes every writable project and records their revisions in the manifest.
type PushOperation struct {
	Branch Branch
}

// Name identifies the operation.
func (PushOperation) Name() string {
	return pushOperationNameConstant
}

// RunSingleRepository pushes the branch to the first remote and records its upstream.
func (operation PushOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	remoteName, remoteError := firstRemote(executionContext, environment, environment.Topology.Root)
	if remoteError != nil {
		return remoteError
	}
	return environment.Git.Push(executionContext, environment.Topology.Root, remoteName, operation.Branch.Name(), true)
}

// RunManifest pushes projects and commits the updated manifest on the branch. The manifest
// is returned to its original branch or commit on every exit path.
func (operation PushOperation) RunManifest(executionContext context.Context, environment *Environment) (pushError error) {
	if initializationError := environment.requireInitialized(executionContext); initializationError != nil {
		return initializationError
	}

	manifestDirectory := environment.manifestDirectory()
	restore, captureError := capturePosition(executionContext, environment.Git, manifestDirectory)
	if captureError != nil {
		return captureError
	}

	branchName := operation.Branch.Name()
	environment.logger().Info(fmt.Sprintf(pushingBranchMessageTemplateConstant, branchName))
	commitMessage, promptError := environment.Prompter.PromptMessage(manifestCommitPromptConstant)
	if promptError != nil {
		return promptError
	}

	defer func() {
		pushError = errors.Join(pushError, restore(executionContext))
	}()

	if switchError := operation.switchManifest(executionContext, environment, manifestDirectory); switchError != nil {
		return switchError
	}
	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	if projectsError := operation.pushProjects(executionContext, environment, loaded); projectsError != nil {
		return projectsError
	}
	if revisionError := operation.recordRevisions(executionContext, environment, loaded); revisionError != nil {
		return revisionError
	}
	if manifestError := operation.pushManifest(executionContext, environment, manifestDirectory, commitMessage); manifestError != nil {
		return manifestError
	}

	environment.logger().Info(fmt.Sprintf(pushCompletedMessageTemplateConstant, branchName))
	return nil
}

func (operation PushOperation) switchManifest(executionContext context.Context, environment *Environment, manifestDirectory string) error {
	branchName := operation.Branch.Name()
	switchError := environment.Git.Switch(executionContext, manifestDirectory, branchName)
	if switchError == nil {
		return nil
	}
	environment.logger().Debug(switchError.Error())
	if checkoutError := environment.Git.Checkout(executionContext, manifestDirectory, branchName); checkoutError != nil {
		environment.logger().Debug(checkoutError.Error())
		return ResolutionError{Reference: branchName, Message: fmt.Sprintf(branchMissingOnManifestTemplateConstant, branchName)}
	}
	return nil
}

func (operation PushOperation) pushProjects(executionContext context.Context, environment *Environment, loaded *manifest.Manifest) error {
	for _, project := range loaded.Projects {
		projectDirectory := environment.projectDirectory(project)
		environment.logger().Info(fmt.Sprintf(operatingOnMessageTemplateConstant, projectDirectory))

		switch project.LockStatus {
		case manifest.LockStatusTagOnly:
			environment.logger().Info(tagOnlyPushMessageConstant, zap.String(logFieldProjectConstant, project.Name))
			if tagsError := environment.Git.PushTags(executionContext, projectDirectory); tagsError != nil {
				return tagsError
			}
			continue
		case manifest.LockStatusReadOnly:
			environment.logger().Info(readOnlySkipMessageConstant, zap.String(logFieldProjectConstant, project.Name))
			continue
		}

		projectBranch := ProjectBranchName(operation.Branch, project)
		publishable, inspectError := operation.publishable(executionContext, environment, project, projectBranch)
		if inspectError != nil {
			return inspectError
		}
		if !publishable {
			continue
		}
		if pushError := environment.Git.Push(executionContext, projectDirectory, project.Remote, projectBranch, true); pushError != nil {
			return pushError
		}
		if tagsError := environment.Git.PushTags(executionContext, projectDirectory); tagsError != nil {
			return tagsError
		}
	}
	return nil
}

// publishable reports whether the project has the branch locally and the remote lacks its tip.
func (PushOperation) publishable(executionContext context.Context, environment *Environment, project *manifest.Project, projectBranch string) (bool, error) {
	projectDirectory := environment.projectDirectory(project)
	localExists, localError := environment.localBranchExists(executionContext, projectDirectory, projectBranch)
	if localError != nil {
		return false, localError
	}
	if !localExists {
		environment.logger().Info(branchMissingSkipMessageConstant, zap.String(logFieldProjectConstant, project.Name), zap.String(logFieldBranchConstant, projectBranch))
		return false, nil
	}
	tipCommit, commitError := environment.Git.BranchCommit(executionContext, projectDirectory, projectBranch)
	if commitError != nil {
		return false, commitError
	}
	remoteContains, containsError := environment.Git.RemoteContains(executionContext, projectDirectory, project.Remote, tipCommit)
	if containsError != nil {
		return false, containsError
	}
	if remoteContains {
		environment.logger().Info(remoteContainsSkipMessageConstant, zap.String(logFieldProjectConstant, project.Name), zap.String(logFieldRemoteConstant, project.Remote))
		return false, nil
	}
	return true, nil
}

// recordRevisions pins each unlocked project that carries the branch to its tip. Locked
// projects and projects without the branch keep their recorded revision.
func (operation PushOperation) recordRevisions(executionContext context.Context, environment *Environment, loaded *manifest.Manifest) error {
	for _, project := range loaded.UnlockedProjects() {
		projectDirectory := environment.projectDirectory(project)
		projectBranch := ProjectBranchName(operation.Branch, project)
		localExists, localError := environment.localBranchExists(executionContext, projectDirectory, projectBranch)
		if localError != nil {
			return localError
		}
		if !localExists {
			continue
		}
		tipCommit, commitError := environment.Git.BranchCommit(executionContext, projectDirectory, projectBranch)
		if commitError != nil {
			return commitError
		}
		project.Revision = tipCommit
	}
	return environment.saveManifest(loaded)
}

func (operation PushOperation) pushManifest(executionContext context.Context, environment *Environment, manifestDirectory string, commitMessage string) error {
	if stageError := environment.Git.StageAll(executionContext, manifestDirectory); stageError != nil {
		return stageError
	}
	hasChanges, statusError := environment.Git.HasChanges(executionContext, manifestDirectory)
	if statusError != nil {
		return statusError
	}
	if hasChanges {
		if commitError := environment.Git.Commit(executionContext, manifestDirectory, commitMessage, false); commitError != nil {
			return commitError
		}
	} else {
		environment.logger().Info(manifestUnchangedMessageConstant)
	}
	if pushError := environment.Git.Push(executionContext, manifestDirectory, environment.manifestRemote(), operation.Branch.Name(), true); pushError != nil {
		return pushError
	}
	return environment.Git.PushTags(executionContext, manifestDirectory)
}
