package reposync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/sc/internal/execshell"
)

const (
	repoExecutorNotConfiguredMessageConstant = "repo executor not configured"
	topologyRootRequiredMessageConstant      = "topology root is required"

	repoSyncSubcommandConstant    = "sync"
	repoStatusSubcommandConstant  = "status"
	repoForceSyncFlagConstant     = "--force-sync"
	repoForceCheckoutFlagConstant = "--force-checkout"
	repoVerifyFlagConstant        = "--verify"
	repoDetachFlagConstant        = "-d"
	repoNoPruneFlagConstant       = "--no-prune"
	syncFailureTemplateConstant   = "repo sync failed in %s: %w"
	statusFailureTemplateConstant = "repo status failed in %s: %w"
)

// ErrRepoExecutorNotConfigured indicates the synchronizer was constructed without an executor.
var ErrRepoExecutorNotConfigured = errors.New(repoExecutorNotConfiguredMessageConstant)

// ErrTopologyRootRequired indicates an empty topology root was supplied.
var ErrTopologyRootRequired = errors.New(topologyRootRequiredMessageConstant)

// RepoExecutor runs repo commands.
type RepoExecutor interface {
	ExecuteRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SyncOptions select the repo sync flags.
type SyncOptions struct {
	ForceSync     bool
	ForceCheckout bool
	Verify        bool
	Detach        bool
	NoPrune       bool
}

// Synchronizer runs repo sync and repo status from the topology root.
type Synchronizer struct {
	executor RepoExecutor
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(executor RepoExecutor) (*Synchronizer, error) {
	if executor == nil {
		return nil, ErrRepoExecutorNotConfigured
	}
	return &Synchronizer{executor: executor}, nil
}

// Sync checks every project out at the revision the manifest pins.
func (synchronizer *Synchronizer) Sync(executionContext context.Context, topologyRoot string, options SyncOptions) error {
	if len(strings.TrimSpace(topologyRoot)) == 0 {
		return ErrTopologyRootRequired
	}
	arguments := append([]string{repoSyncSubcommandConstant}, options.flags()...)
	if _, executionError := synchronizer.executor.ExecuteRepo(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: topologyRoot,
	}); executionError != nil {
		return fmt.Errorf(syncFailureTemplateConstant, topologyRoot, executionError)
	}
	return nil
}

// Status returns the aggregated repo status report.
func (synchronizer *Synchronizer) Status(executionContext context.Context, topologyRoot string) (string, error) {
	if len(strings.TrimSpace(topologyRoot)) == 0 {
		return "", ErrTopologyRootRequired
	}
	executionResult, executionError := synchronizer.executor.ExecuteRepo(executionContext, execshell.CommandDetails{
		Arguments:        []string{repoStatusSubcommandConstant},
		WorkingDirectory: topologyRoot,
	})
	if executionError != nil {
		return "", fmt.Errorf(statusFailureTemplateConstant, topologyRoot, executionError)
	}
	return executionResult.StandardOutput, nil
}

func (options SyncOptions) flags() []string {
	flags := make([]string, 0, 5)
	if options.ForceSync {
		flags = append(flags, repoForceSyncFlagConstant)
	}
	if options.ForceCheckout {
		flags = append(flags, repoForceCheckoutFlagConstant)
	}
	if options.Verify {
		flags = append(flags, repoVerifyFlagConstant)
	}
	if options.Detach {
		flags = append(flags, repoDetachFlagConstant)
	}
	if options.NoPrune {
		flags = append(flags, repoNoPruneFlagConstant)
	}
	return flags
}
