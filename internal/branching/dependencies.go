package branching

import (
	"context"

	"github.com/temirov/sc/internal/gitflow"
	"github.com/temirov/sc/internal/manifest"
	"github.com/temirov/sc/internal/reposync"
)

// GitOperations exposes the version-control primitives operations run against one repository.
type GitOperations interface {
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, references ...string) error
	Checkout(executionContext context.Context, repositoryPath string, reference string) error
	CheckoutNewBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	CheckoutTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, remoteReference string) error
	CheckoutDetached(executionContext context.Context, repositoryPath string, commit string) error
	Switch(executionContext context.Context, repositoryPath string, branchName string) error
	SwitchCreate(executionContext context.Context, repositoryPath string, branchName string) error
	SwitchForceCreate(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	SetUpstream(executionContext context.Context, repositoryPath string, branchName string, remoteReference string) error
	Merge(executionContext context.Context, repositoryPath string, reference string) error
	Pull(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
	Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error
	PushTags(executionContext context.Context, repositoryPath string) error
	DeleteTag(executionContext context.Context, repositoryPath string, tagName string) error
	RemoteContains(executionContext context.Context, repositoryPath string, remoteName string, commit string) (bool, error)
	LocalBranches(executionContext context.Context, repositoryPath string) ([]string, error)
	RemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error)
	Remotes(executionContext context.Context, repositoryPath string) ([]string, error)
	RemoteHeads(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	HeadCommit(executionContext context.Context, repositoryPath string) (string, error)
	BranchCommit(executionContext context.Context, repositoryPath string, branchName string) (string, error)
	StageAll(executionContext context.Context, repositoryPath string) error
	HasChanges(executionContext context.Context, repositoryPath string) (bool, error)
	Commit(executionContext context.Context, repositoryPath string, message string, allowEmpty bool) error
	Clean(executionContext context.Context, repositoryPath string, excludedPatterns []string) error
	HardReset(executionContext context.Context, repositoryPath string, revision string) error
	Status(executionContext context.Context, repositoryPath string) (string, error)
	RefreshLargeFiles(executionContext context.Context, repositoryPath string) error
}

// GitFlowOperations exposes the git-flow primitives and their recorded conventions.
type GitFlowOperations interface {
	Init(executionContext context.Context, repositoryPath string) error
	Start(executionContext context.Context, repositoryPath string, branchType string, name string, base string) error
	Finish(executionContext context.Context, repositoryPath string, options gitflow.FinishOptions) error
	Checkout(executionContext context.Context, repositoryPath string, branchType string, name string) error
	SetBranchBase(executionContext context.Context, repositoryPath string, branchName string, base string) error
	BranchBase(executionContext context.Context, repositoryPath string, branchName string) (string, error)
	SetPrimaryBranch(executionContext context.Context, repositoryPath string, role string, branchName string) error
	DevelopBranch(executionContext context.Context, repositoryPath string) (string, error)
	MasterBranch(executionContext context.Context, repositoryPath string) (string, error)
	IsEnabled(executionContext context.Context, repositoryPath string) (bool, error)
}

// ManifestStore loads and persists the project registry of a topology.
type ManifestStore interface {
	Load(topologyRoot string) (*manifest.Manifest, error)
	Save(manifest *manifest.Manifest) error
}

// TopologySynchronizer materializes manifest revisions on disk.
type TopologySynchronizer interface {
	Sync(executionContext context.Context, topologyRoot string, options reposync.SyncOptions) error
	Status(executionContext context.Context, topologyRoot string) (string, error)
}

// MessagePrompter blocks until the operator supplies a non-empty message.
type MessagePrompter interface {
	PromptMessage(prompt string) (string, error)
}
