package branching

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

const (
	listOperationNameConstant            = "list"
	localBranchesHeaderTemplateConstant  = "Local %s branches:\n"
	remoteBranchesHeaderTemplateConstant = "Remote %s branches:\n"
	listEntryTemplateConstant            = "%s\n"
	remoteListFailureMessageConstant     = "Failed getting branches from remote"
)

// ListOperation enumerates the local and remote branches of a type.
type ListOperation struct {
	BranchType BranchType
}

// Name identifies the operation.
func (ListOperation) Name() string {
	return listOperationNameConstant
}

// RunSingleRepository lists the branches of the repository.
func (operation ListOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	return operation.list(executionContext, environment, environment.Topology.Root)
}

// RunManifest lists the branches of the manifest repository.
func (operation ListOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	return operation.list(executionContext, environment, environment.manifestDirectory())
}

func (operation ListOperation) list(executionContext context.Context, environment *Environment, repositoryPath string) error {
	prefix := operation.BranchType.String() + branchNameSeparatorConstant

	localBranches, localError := environment.Git.LocalBranches(executionContext, repositoryPath)
	if localError != nil {
		return localError
	}
	localSuffixes := filterSuffixes(localBranches, prefix)

	remotes, remotesError := environment.Git.Remotes(executionContext, repositoryPath)
	if remotesError != nil {
		return remotesError
	}
	var remoteSuffixes []string
	for _, remoteName := range remotes {
		heads, headsError := environment.Git.RemoteHeads(executionContext, repositoryPath, remoteName)
		if headsError != nil {
			environment.logger().Warn(remoteListFailureMessageConstant, zap.String(logFieldRemoteConstant, remoteName), zap.Error(headsError))
			continue
		}
		for _, suffix := range filterSuffixes(heads, prefix) {
			if slices.Contains(localSuffixes, suffix) || slices.Contains(remoteSuffixes, suffix) {
				continue
			}
			remoteSuffixes = append(remoteSuffixes, suffix)
		}
	}

	output := environment.output()
	if writeError := writeBranchList(output, fmt.Sprintf(localBranchesHeaderTemplateConstant, operation.BranchType), sortBranchSuffixes(localSuffixes)); writeError != nil {
		return writeError
	}
	return writeBranchList(output, fmt.Sprintf(remoteBranchesHeaderTemplateConstant, operation.BranchType), sortBranchSuffixes(remoteSuffixes))
}

func filterSuffixes(branches []string, prefix string) []string {
	suffixes := make([]string, 0, len(branches))
	for _, branchName := range branches {
		if suffix, found := strings.CutPrefix(branchName, prefix); found && len(suffix) > 0 {
			suffixes = append(suffixes, suffix)
		}
	}
	return suffixes
}

// sortBranchSuffixes orders suffixes by semantic version when every suffix is a version
// and lexically otherwise.
func sortBranchSuffixes(suffixes []string) []string {
	sorted := slices.Clone(suffixes)
	versions := make(map[string]*semver.Version, len(sorted))
	for _, suffix := range sorted {
		version, parseError := semver.NewVersion(suffix)
		if parseError != nil {
			sort.Strings(sorted)
			return sorted
		}
		versions[suffix] = version
	}
	sort.SliceStable(sorted, func(left int, right int) bool {
		return versions[sorted[left]].LessThan(versions[sorted[right]])
	})
	return sorted
}

func writeBranchList(output io.Writer, header string, suffixes []string) error {
	if _, writeError := io.WriteString(output, header); writeError != nil {
		return writeError
	}
	for _, suffix := range suffixes {
		if _, writeError := fmt.Fprintf(output, listEntryTemplateConstant, suffix); writeError != nil {
			return writeError
		}
	}
	return nil
}
