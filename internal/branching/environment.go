package branching

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/gitrepo"
	"github.com/temirov/sc/internal/manifest"
)

const (
	defaultManifestRemoteConstant          = "origin"
	manifestLoadFailureTemplateConstant    = "failed to load manifest of %s: %w"
	manifestSaveFailureTemplateConstant    = "failed to save manifest %s: %w"
	operatingOnMessageTemplateConstant     = "Operating on %s"
	lockedProjectSkipMessageConstant       = "Project is locked. Skipping."
	logFieldProjectConstant                = "project"
	logFieldLockStatusConstant             = "lock_status"
	logFieldBranchConstant                 = "branch"
	logFieldRemoteConstant                 = "remote"
	logFieldOperationConstant              = "operation"
	logFieldProjectTypeConstant            = "project_type"
	branchNotOfTypeMessageTemplateConstant = "Branch %s is not of type %s!"
	currentBranchDetachedValueConstant     = "a detached HEAD"
)

// Settings carries configuration-driven operation behavior.
type Settings struct {
	ManifestRemote    string
	RefreshLargeFiles bool
	CleanExcludes     []string
}

// Environment exposes the collaborators shared by every operation.
type Environment struct {
	Topology     Topology
	Git          GitOperations
	GitFlow      GitFlowOperations
	Manifests    ManifestStore
	Synchronizer TopologySynchronizer
	Prompter     MessagePrompter
	Output       io.Writer
	Logger       *zap.Logger
	Settings     Settings
}

func (environment *Environment) logger() *zap.Logger {
	if environment.Logger == nil {
		return zap.NewNop()
	}
	return environment.Logger
}

func (environment *Environment) output() io.Writer {
	if environment.Output == nil {
		return io.Discard
	}
	return environment.Output
}

func (environment *Environment) manifestDirectory() string {
	return environment.Topology.ManifestDirectory()
}

func (environment *Environment) manifestRemote() string {
	if remote := strings.TrimSpace(environment.Settings.ManifestRemote); len(remote) > 0 {
		return remote
	}
	return defaultManifestRemoteConstant
}

func (environment *Environment) projectDirectory(project *manifest.Project) string {
	return project.Directory(environment.Topology.Root)
}

func (environment *Environment) loadManifest() (*manifest.Manifest, error) {
	loaded, loadError := environment.Manifests.Load(environment.Topology.Root)
	if loadError != nil {
		return nil, fmt.Errorf(manifestLoadFailureTemplateConstant, environment.Topology.Root, loadError)
	}
	return loaded, nil
}

func (environment *Environment) saveManifest(loaded *manifest.Manifest) error {
	if saveError := environment.Manifests.Save(loaded); saveError != nil {
		manifestPath := loaded.SourcePath()
		if len(manifestPath) == 0 {
			manifestPath = environment.Topology.Root
		}
		return fmt.Errorf(manifestSaveFailureTemplateConstant, manifestPath, saveError)
	}
	return nil
}

// requireInitialized fails before any mutation when the manifest lacks git-flow conventions.
func (environment *Environment) requireInitialized(executionContext context.Context) error {
	enabled, enabledError := environment.GitFlow.IsEnabled(executionContext, environment.manifestDirectory())
	if enabledError != nil {
		return enabledError
	}
	if !enabled {
		return InitializationError{Directory: environment.manifestDirectory()}
	}
	return nil
}

// operatingOn logs the project and reports whether it may have its branch state mutated.
func (environment *Environment) operatingOn(project *manifest.Project) bool {
	environment.logger().Info(fmt.Sprintf(operatingOnMessageTemplateConstant, environment.projectDirectory(project)))
	if project.Locked() {
		environment.logger().Info(lockedProjectSkipMessageConstant, zap.String(logFieldProjectConstant, project.Name), zap.String(logFieldLockStatusConstant, string(project.LockStatus)))
		return false
	}
	return true
}

func (environment *Environment) localBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	branches, listError := environment.Git.LocalBranches(executionContext, repositoryPath)
	if listError != nil {
		return false, listError
	}
	return slices.Contains(branches, branchName), nil
}

func (environment *Environment) remoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error) {
	branches, listError := environment.Git.RemoteBranches(executionContext, repositoryPath, remoteName)
	if listError != nil {
		return false, listError
	}
	return slices.Contains(branches, branchName), nil
}

// trackRemoteBranch sets the upstream of the branch when the remote carries it.
func (environment *Environment) trackRemoteBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	remoteExists, remoteError := environment.remoteBranchExists(executionContext, repositoryPath, remoteName, branchName)
	if remoteError != nil || !remoteExists {
		return remoteError
	}
	return environment.Git.SetUpstream(executionContext, repositoryPath, branchName, gitrepo.RemoteReference(remoteName, branchName))
}

func (environment *Environment) refreshLargeFiles(executionContext context.Context, repositoryPath string) error {
	if !environment.Settings.RefreshLargeFiles {
		return nil
	}
	return environment.Git.RefreshLargeFiles(executionContext, repositoryPath)
}

// ProjectBranchName returns the branch name a project uses for the branch. Projects may
// declare alternate names for their master and develop branches.
func ProjectBranchName(branch Branch, project *manifest.Project) string {
	switch branch.Type() {
	case BranchTypeMaster:
		if len(project.AlternativeMaster) > 0 {
			return project.AlternativeMaster
		}
	case BranchTypeDevelop:
		if len(project.AlternativeDevelop) > 0 {
			return project.AlternativeDevelop
		}
	}
	return branch.Name()
}

// ResolveBranch derives the branch an operation targets. An explicit name wins and may carry
// the type prefix, primary types need no name, and otherwise the current branch of the
// topology must be of the type.
func ResolveBranch(executionContext context.Context, environment *Environment, branchType BranchType, name string) (Branch, error) {
	if trimmedName := strings.TrimSpace(name); len(trimmedName) > 0 {
		return NewBranch(branchType, strings.TrimPrefix(trimmedName, branchType.String()+branchNameSeparatorConstant))
	}
	if branchType.IsPrimary() {
		return NewBranch(branchType, "")
	}

	currentBranch, currentError := environment.Git.CurrentBranch(executionContext, environment.Topology.BranchDirectory())
	if currentError != nil {
		return Branch{}, currentError
	}
	if strings.HasPrefix(currentBranch, branchType.String()+branchNameSeparatorConstant) {
		if resolved, parseError := ParseBranchName(currentBranch); parseError == nil {
			return resolved, nil
		}
	}

	reportedBranch := currentBranch
	if len(reportedBranch) == 0 {
		reportedBranch = currentBranchDetachedValueConstant
	}
	return Branch{}, ResolutionError{
		Reference: currentBranch,
		Message:   fmt.Sprintf(branchNotOfTypeMessageTemplateConstant, reportedBranch, branchType),
	}
}
