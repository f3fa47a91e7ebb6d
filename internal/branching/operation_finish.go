package branching

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/gitflow"
)

const (
	finishOperationNameConstant            = "finish"
	tagMessagePromptConstant               = "Input tag message: "
	branchMissingForFinishTemplateConstant = "Branch %s doesn't exist so can't be finished!"
	hotfixBaseRequiredTemplateConstant     = "Base required in command or config for hotfix branches. Please use `sc hotfix finish %s <base>`"
	baseBranchMissingTemplateConstant      = "base branch %s not found locally or on %s"
	fetchReferenceTemplateConstant         = "%s:%s"
	deletingTagMessageTemplateConstant     = "Attempt deleting tag: %s"
	tagMissingMessageConstant              = "Tag doesn't exist."
	rebaseCommitTemplateConstant           = "Finished %s. Rebase %s"
	finishCompletedMessageConstant         = "Finish completed!"
	releaseNextStepsMessageConstant        = "Run sc develop push and sc master push to push to remote!"
	featureNextStepsMessageConstant        = "Run sc develop push to push to remote!"
	primaryNextStepsTemplateConstant       = "Run sc %s push to push to remote!"
	parametricNextStepsTemplateConstant    = "Run sc %s push %s to push to remote!"
)

// FinishOperation merges a parametric branch into its targets, tags it, and realigns the
// long-lived branches of the topology. A failure leaves earlier projects finished; rerunning
// deletes the tag first so the retry proceeds.
type FinishOperation struct {
	Branch Branch
	Base   string
}

// Name identifies the operation.
func (FinishOperation) Name() string {
	return finishOperationNameConstant
}

// RunSingleRepository finishes the branch through git flow.
func (operation FinishOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	if operation.Branch.Type() == BranchTypeSupport {
		return ErrFinishUnsupported
	}
	repositoryPath := environment.Topology.Root
	if operation.Branch.Type() == BranchTypeHotfix {
		base, baseError := operation.resolveBase(executionContext, environment, repositoryPath)
		if baseError != nil {
			return baseError
		}
		if recordError := environment.GitFlow.SetBranchBase(executionContext, repositoryPath, operation.Branch.Name(), base); recordError != nil {
			return recordError
		}
	}

	tagMessage, promptError := operation.promptTagMessage(environment)
	if promptError != nil {
		return promptError
	}
	if finishError := environment.GitFlow.Finish(executionContext, repositoryPath, gitflow.FinishOptions{
		BranchType: operation.Branch.Type().String(),
		Name:       operation.Branch.Suffix(),
		TagMessage: tagMessage,
	}); finishError != nil {
		return FinishOperationError{Path: repositoryPath, Cause: finishError}
	}
	return nil
}

// RunManifest finishes every unlocked project, then the manifest, then rebases the topology.
func (operation FinishOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	if operation.Branch.Type() == BranchTypeSupport {
		return ErrFinishUnsupported
	}
	if initializationError := environment.requireInitialized(executionContext); initializationError != nil {
		return initializationError
	}

	manifestDirectory := environment.manifestDirectory()
	branchName := operation.Branch.Name()
	manifestBranch, branchError := environment.Git.CurrentBranch(executionContext, manifestDirectory)
	if branchError != nil {
		return branchError
	}
	localExists, localError := environment.localBranchExists(executionContext, manifestDirectory, branchName)
	if localError != nil {
		return localError
	}
	if !localExists && manifestBranch != branchName {
		return ResolutionError{Reference: branchName, Message: fmt.Sprintf(branchMissingForFinishTemplateConstant, branchName)}
	}

	var base Branch
	if operation.Branch.Type() == BranchTypeHotfix {
		rawBase, baseError := operation.resolveBase(executionContext, environment, manifestDirectory)
		if baseError != nil {
			return baseError
		}
		parsedBase, parseError := ParseBranchName(rawBase)
		if parseError != nil {
			return parseError
		}
		base = parsedBase
	}

	if manifestBranch != branchName {
		if checkoutError := (CheckoutOperation{Branch: operation.Branch}).RunManifest(executionContext, environment); checkoutError != nil {
			return checkoutError
		}
	}

	tagMessage, promptError := operation.promptTagMessage(environment)
	if promptError != nil {
		return promptError
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
		projectBase := ""
		if len(base.Type()) > 0 {
			resolvedBase, resolveError := configuredBranchName(executionContext, environment, projectDirectory, base, ProjectBranchName(base, project))
			if resolveError != nil {
				return FinishOperationError{Path: projectDirectory, Cause: resolveError}
			}
			projectBase = resolvedBase
		}
		if finishError := operation.finishRepository(executionContext, environment, projectDirectory, project.Remote, projectBase, tagMessage); finishError != nil {
			return finishError
		}
	}
	manifestBase := ""
	if len(base.Type()) > 0 {
		resolvedBase, resolveError := configuredBranchName(executionContext, environment, manifestDirectory, base, base.Name())
		if resolveError != nil {
			return FinishOperationError{Path: manifestDirectory, Cause: resolveError}
		}
		manifestBase = resolvedBase
	}
	if finishError := operation.finishRepository(executionContext, environment, manifestDirectory, environment.manifestRemote(), manifestBase, tagMessage); finishError != nil {
		return finishError
	}

	if rebaseError := operation.rebase(executionContext, environment, base); rebaseError != nil {
		return rebaseError
	}
	operation.logNextSteps(environment, base)
	return nil
}

func (operation FinishOperation) resolveBase(executionContext context.Context, environment *Environment, repositoryPath string) (string, error) {
	if len(operation.Base) > 0 {
		return operation.Base, nil
	}
	recordedBase, baseError := environment.GitFlow.BranchBase(executionContext, repositoryPath, operation.Branch.Name())
	if baseError != nil {
		return "", baseError
	}
	if len(recordedBase) == 0 {
		return "", ResolutionError{
			Reference: operation.Branch.Name(),
			Message:   fmt.Sprintf(hotfixBaseRequiredTemplateConstant, operation.Branch.Suffix()),
		}
	}
	return recordedBase, nil
}

func (operation FinishOperation) promptTagMessage(environment *Environment) (string, error) {
	switch operation.Branch.Type() {
	case BranchTypeHotfix, BranchTypeRelease:
		return environment.Prompter.PromptMessage(tagMessagePromptConstant)
	default:
		return "", nil
	}
}

func (operation FinishOperation) finishRepository(executionContext context.Context, environment *Environment, repositoryPath string, remoteName string, base string, tagMessage string) error {
	if len(base) > 0 {
		baseExists, inspectError := operation.ensureBaseBranch(executionContext, environment, repositoryPath, remoteName, base)
		if inspectError != nil {
			return FinishOperationError{Path: repositoryPath, Cause: inspectError}
		}
		if !baseExists {
			return FinishOperationError{Path: repositoryPath, Cause: fmt.Errorf(baseBranchMissingTemplateConstant, base, remoteName)}
		}
		if recordError := environment.GitFlow.SetBranchBase(executionContext, repositoryPath, operation.Branch.Name(), base); recordError != nil {
			return FinishOperationError{Path: repositoryPath, Cause: recordError}
		}
	}

	tagName := operation.Branch.Suffix()
	environment.logger().Info(fmt.Sprintf(deletingTagMessageTemplateConstant, tagName))
	if deleteError := environment.Git.DeleteTag(executionContext, repositoryPath, tagName); deleteError != nil {
		environment.logger().Info(tagMissingMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath))
	}

	if finishError := environment.GitFlow.Finish(executionContext, repositoryPath, gitflow.FinishOptions{
		BranchType: operation.Branch.Type().String(),
		Name:       tagName,
		KeepBranch: true,
		TagMessage: tagMessage,
	}); finishError != nil {
		return FinishOperationError{Path: repositoryPath, Cause: finishError}
	}
	return nil
}

// ensureBaseBranch reports whether the base exists locally, fetching it from the remote when absent.
func (FinishOperation) ensureBaseBranch(executionContext context.Context, environment *Environment, repositoryPath string, remoteName string, base string) (bool, error) {
	localBranches, listError := environment.Git.LocalBranches(executionContext, repositoryPath)
	if listError != nil {
		return false, listError
	}
	if slices.Contains(localBranches, base) {
		return true, nil
	}
	if fetchError := environment.Git.Fetch(executionContext, repositoryPath, remoteName, fmt.Sprintf(fetchReferenceTemplateConstant, base, base)); fetchError != nil {
		environment.logger().Debug(fetchError.Error())
		return false, nil
	}
	return true, nil
}

func (operation FinishOperation) rebase(executionContext context.Context, environment *Environment, base Branch) error {
	var targets []Branch
	switch operation.Branch.Type() {
	case BranchTypeFeature:
		targets = []Branch{{branchType: BranchTypeDevelop}}
	case BranchTypeRelease:
		targets = []Branch{{branchType: BranchTypeMaster}, {branchType: BranchTypeDevelop}}
	case BranchTypeHotfix:
		targets = []Branch{base}
	}
	for _, target := range targets {
		if rebaseError := operation.rebaseOnto(executionContext, environment, target); rebaseError != nil {
			return rebaseError
		}
	}
	return nil
}

// rebaseOnto switches the topology to the target, pins the unlocked projects to their heads,
// and records an empty marker commit in the manifest.
func (operation FinishOperation) rebaseOnto(executionContext context.Context, environment *Environment, target Branch) error {
	manifestDirectory := environment.manifestDirectory()
	manifestTarget, targetError := configuredBranchName(executionContext, environment, manifestDirectory, target, target.Name())
	if targetError != nil {
		return targetError
	}
	if switchError := environment.Git.Switch(executionContext, manifestDirectory, manifestTarget); switchError != nil {
		return switchError
	}

	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	for _, project := range loaded.UnlockedProjects() {
		projectDirectory := environment.projectDirectory(project)
		projectTarget, projectTargetError := configuredBranchName(executionContext, environment, projectDirectory, target, ProjectBranchName(target, project))
		if projectTargetError != nil {
			return projectTargetError
		}
		if switchError := environment.Git.Switch(executionContext, projectDirectory, projectTarget); switchError != nil {
			return switchError
		}
		headCommit, commitError := environment.Git.HeadCommit(executionContext, projectDirectory)
		if commitError != nil {
			return commitError
		}
		project.Revision = headCommit
	}
	if saveError := environment.saveManifest(loaded); saveError != nil {
		return saveError
	}
	if stageError := environment.Git.StageAll(executionContext, manifestDirectory); stageError != nil {
		return stageError
	}
	return environment.Git.Commit(executionContext, manifestDirectory, fmt.Sprintf(rebaseCommitTemplateConstant, operation.Branch.Name(), target.Name()), true)
}

// configuredBranchName returns the git-flow configured name for primary targets, falling
// back to the provided name when the repository records none.
func configuredBranchName(executionContext context.Context, environment *Environment, repositoryPath string, target Branch, fallback string) (string, error) {
	var configured string
	var configError error
	switch target.Type() {
	case BranchTypeDevelop:
		configured, configError = environment.GitFlow.DevelopBranch(executionContext, repositoryPath)
	case BranchTypeMaster:
		configured, configError = environment.GitFlow.MasterBranch(executionContext, repositoryPath)
	}
	if configError != nil {
		return "", configError
	}
	if len(configured) == 0 {
		return fallback, nil
	}
	return configured, nil
}

func (operation FinishOperation) logNextSteps(environment *Environment, base Branch) {
	logger := environment.logger()
	logger.Info(finishCompletedMessageConstant)
	switch operation.Branch.Type() {
	case BranchTypeRelease:
		logger.Info(releaseNextStepsMessageConstant)
	case BranchTypeFeature:
		logger.Info(featureNextStepsMessageConstant)
	case BranchTypeHotfix:
		if base.Type().IsPrimary() {
			logger.Info(fmt.Sprintf(primaryNextStepsTemplateConstant, base.Type()))
			return
		}
		logger.Info(fmt.Sprintf(parametricNextStepsTemplateConstant, base.Type(), base.Suffix()))
	}
}
