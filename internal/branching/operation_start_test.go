package branching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sc/internal/manifest"
	"github.com/temirov/sc/internal/reposync"
)

func TestStartBranchesUnlockedProjectsFromBase(t *testing.T) {
	topology := newFakeTopology(t)
	topology.addProject("app", manifest.LockStatusNone)
	topology.addProject("lib", manifest.LockStatusReadOnly)
	environment := topology.environment(ProjectTypeRepo)
	manifestDirectory := environment.manifestDirectory()
	branch, _ := NewBranch(BranchTypeFeature, "foo")

	require.NoError(t, (StartOperation{Branch: branch, Base: "develop"}).RunManifest(context.Background(), environment))

	application := topology.project("app")
	require.Equal(t, "feature/foo", application.currentBranch)
	require.Equal(t, application.branches["develop"], application.branches["feature/foo"])
	require.NotContains(t, topology.project("lib").branches, "feature/foo")
	require.Empty(t, topology.callsIn(topology.projectPath("lib"), "checkout-new"))

	manifestRepository := topology.manifestRepository()
	require.Equal(t, "feature/foo", manifestRepository.currentBranch)
	require.Equal(t, []string{"Starting feature/foo"}, topology.commitMessages[manifestDirectory])
	require.Equal(t, manifestRepository.branches["feature/foo"], manifestRepository.remotes["origin"]["feature/foo"])
	require.Equal(t, []reposync.SyncOptions{{Detach: true}}, topology.syncs)

	merges := topology.callsIn(topology.projectPath("app"), "merge")
	require.Len(t, merges, 1)
	require.Equal(t, []string{application.branches["develop"]}, merges[0].arguments)
}

func TestStartRejectsExistingBranchBeforeMutating(t *testing.T) {
	topology := newFakeTopology(t)
	topology.addProject("app", manifest.LockStatusNone)
	topology.manifestRepository().remotes["origin"]["feature/foo"] = topology.nextCommit()
	environment := topology.environment(ProjectTypeRepo)
	branch, _ := NewBranch(BranchTypeFeature, "foo")

	startError := (StartOperation{Branch: branch, Base: "develop"}).RunManifest(context.Background(), environment)
	var resolutionError ResolutionError
	require.ErrorAs(t, startError, &resolutionError)
	require.Equal(t, "Branch feature/foo already exists and can't be started.", resolutionError.Error())
	require.Empty(t, topology.mutatingCalls())
	require.Empty(t, topology.syncs)
}

func TestStartRejectsUnknownBaseType(t *testing.T) {
	topology := newFakeTopology(t)
	environment := topology.environment(ProjectTypeRepo)
	branch, _ := NewBranch(BranchTypeFeature, "foo")

	startError := (StartOperation{Branch: branch, Base: "trunk"}).RunManifest(context.Background(), environment)
	require.ErrorIs(t, startError, ErrUnknownBranchType)
	require.Empty(t, topology.mutatingCalls())
}

func TestStartSingleRepositoryDelegatesToGitFlow(t *testing.T) {
	topology := newFakeTopology(t)
	environment := topology.environment(ProjectTypeGit)
	branch, _ := NewBranch(BranchTypeRelease, "1.2")

	require.NoError(t, (StartOperation{Branch: branch, Base: "develop"}).RunSingleRepository(context.Background(), environment))

	require.Len(t, topology.callsOf("flow-init"), 1)
	starts := topology.callsOf("flow-start")
	require.Len(t, starts, 1)
	require.Equal(t, []string{"release", "1.2", "develop"}, starts[0].arguments)
	require.Equal(t, "release/1.2", topology.manifestRepository().currentBranch)
}
