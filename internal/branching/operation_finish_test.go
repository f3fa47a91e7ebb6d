package branching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sc/internal/manifest"
)

// newFinishTopology places the manifest and an unlocked project on the branch.
func newFinishTopology(t *testing.T, branchName string) (*fakeTopology, Branch) {
	t.Helper()
	topology := newFakeTopology(t)
	application := topology.addProject("app", manifest.LockStatusNone)
	topology.addProject("lib", manifest.LockStatusReadOnly)

	application.branches[branchName] = topology.nextCommit()
	application.currentBranch = branchName
	manifestRepository := topology.manifestRepository()
	manifestRepository.branches[branchName] = topology.nextCommit()
	manifestRepository.currentBranch = branchName

	branch, branchError := ParseBranchName(branchName)
	require.NoError(t, branchError)
	return topology, branch
}

func TestFinishReleaseTagsAndRebasesBothPrimaries(t *testing.T) {
	topology, branch := newFinishTopology(t, "release/1.0")
	environment := topology.environment(ProjectTypeRepo)
	manifestDirectory := environment.manifestDirectory()

	require.NoError(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment))

	require.Equal(t, []string{tagMessagePromptConstant}, topology.prompts)
	for _, path := range []string{topology.projectPath("app"), manifestDirectory} {
		finishes := topology.callsIn(path, "flow-finish")
		require.Len(t, finishes, 1, path)
		require.Equal(t, []string{"release", "1.0", "true", fakeTagMessageConstant}, finishes[0].arguments)
		require.True(t, topology.repository(path).tags["1.0"], path)
	}
	require.Empty(t, topology.callsIn(topology.projectPath("lib"), "flow-finish"))

	require.Equal(t, []string{
		"Finished release/1.0. Rebase master",
		"Finished release/1.0. Rebase develop",
	}, topology.commitMessages[manifestDirectory])
	require.Equal(t, "develop", topology.manifestRepository().currentBranch)
	require.Equal(t, "develop", topology.project("app").currentBranch)
	require.Equal(t, topology.project("app").branches["develop"], topology.savedRevisions["app"])
}

func TestFinishRerunDeletesTagBeforeRetrying(t *testing.T) {
	topology, branch := newFinishTopology(t, "release/1.0")
	environment := topology.environment(ProjectTypeRepo)
	manifestDirectory := environment.manifestDirectory()
	topology.failOn("flow-finish", manifestDirectory)

	firstError := (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment)
	var finishError FinishOperationError
	require.ErrorAs(t, firstError, &finishError)
	require.Equal(t, manifestDirectory, finishError.Path)
	require.True(t, topology.project("app").tags["1.0"])

	delete(topology.failures, "flow-finish "+manifestDirectory)
	require.NoError(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment))

	applicationTagDeletions := topology.callsIn(topology.projectPath("app"), "delete-tag")
	require.Len(t, applicationTagDeletions, 2)
	require.Len(t, topology.callsIn(topology.projectPath("app"), "flow-finish"), 2)
	require.True(t, topology.project("app").tags["1.0"])
	require.True(t, topology.manifestRepository().tags["1.0"])
}

func TestFinishReportsFailingProject(t *testing.T) {
	topology, branch := newFinishTopology(t, "feature/foo")
	environment := topology.environment(ProjectTypeRepo)
	applicationPath := topology.projectPath("app")
	topology.failOn("flow-finish", applicationPath)

	finishError := (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment)
	var operationError FinishOperationError
	require.ErrorAs(t, finishError, &operationError)
	require.Equal(t, applicationPath, operationError.Path)
	require.Contains(t, operationError.Error(), "Please resolve error and rerun sc finish.")
	require.Empty(t, topology.callsIn(environment.manifestDirectory(), "flow-finish"))
	require.Empty(t, topology.commitMessages[environment.manifestDirectory()])
}

func TestFinishFeatureRebasesDevelopWithoutPrompting(t *testing.T) {
	topology, branch := newFinishTopology(t, "feature/foo")
	environment := topology.environment(ProjectTypeRepo)

	require.NoError(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment))
	require.Empty(t, topology.prompts)
	require.Equal(t, []string{"Finished feature/foo. Rebase develop"}, topology.commitMessages[environment.manifestDirectory()])
	require.Empty(t, topology.project("app").tags)
}

func TestFinishHotfixWithoutBaseFailsBeforeMutating(t *testing.T) {
	topology, branch := newFinishTopology(t, "hotfix/1.2.1")
	environment := topology.environment(ProjectTypeRepo)

	finishError := (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment)
	var resolutionError ResolutionError
	require.ErrorAs(t, finishError, &resolutionError)
	require.Equal(t, "Base required in command or config for hotfix branches. Please use `sc hotfix finish 1.2.1 <base>`", resolutionError.Error())
	require.Empty(t, topology.mutatingCalls())
	require.Empty(t, topology.prompts)
}

func TestFinishHotfixRecordsBaseAndRebasesOntoIt(t *testing.T) {
	topology, branch := newFinishTopology(t, "hotfix/1.2.1")
	environment := topology.environment(ProjectTypeRepo)
	manifestDirectory := environment.manifestDirectory()
	releaseCommit := topology.nextCommit()
	topology.project("app").remotes["origin"]["release/1.2"] = releaseCommit
	topology.manifestRepository().branches["release/1.2"] = topology.nextCommit()

	require.NoError(t, (FinishOperation{Branch: branch, Base: "release/1.2"}).RunManifest(context.Background(), environment))

	application := topology.project("app")
	require.Equal(t, releaseCommit, application.branches["release/1.2"])
	require.Equal(t, "release/1.2", application.config["gitflow.branch.hotfix/1.2.1.base"])
	require.Equal(t, "release/1.2", topology.manifestRepository().config["gitflow.branch.hotfix/1.2.1.base"])
	require.Equal(t, []string{"Finished hotfix/1.2.1. Rebase release/1.2"}, topology.commitMessages[manifestDirectory])
	require.Equal(t, "release/1.2", topology.manifestRepository().currentBranch)
}

func TestFinishHotfixUsesRecordedBase(t *testing.T) {
	topology, branch := newFinishTopology(t, "hotfix/1.2.1")
	environment := topology.environment(ProjectTypeRepo)
	topology.manifestRepository().config["gitflow.branch.hotfix/1.2.1.base"] = "master"

	require.NoError(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment))
	require.Equal(t, []string{"Finished hotfix/1.2.1. Rebase master"}, topology.commitMessages[environment.manifestDirectory()])
	require.Equal(t, "master", topology.project("app").config["gitflow.branch.hotfix/1.2.1.base"])
}

func TestFinishRejectsMissingBranch(t *testing.T) {
	topology, _ := newFinishTopology(t, "feature/foo")
	environment := topology.environment(ProjectTypeRepo)
	missing, _ := NewBranch(BranchTypeFeature, "bar")

	finishError := (FinishOperation{Branch: missing}).RunManifest(context.Background(), environment)
	var resolutionError ResolutionError
	require.ErrorAs(t, finishError, &resolutionError)
	require.Equal(t, "Branch feature/bar doesn't exist so can't be finished!", resolutionError.Error())
	require.Empty(t, topology.mutatingCalls())
}

func TestFinishChecksOutBranchWhenManifestIsElsewhere(t *testing.T) {
	topology, branch := newFinishTopology(t, "feature/foo")
	topology.manifestRepository().currentBranch = "develop"
	environment := topology.environment(ProjectTypeRepo)

	require.NoError(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), environment))
	require.Len(t, topology.syncs, 1)
	checkouts := topology.callsIn(environment.manifestDirectory(), "checkout")
	require.NotEmpty(t, checkouts)
	require.Equal(t, []string{"feature/foo"}, checkouts[0].arguments)
}

func TestFinishRejectsSupportBranches(t *testing.T) {
	topology, branch := newFinishTopology(t, "support/2.x")

	require.ErrorIs(t, (FinishOperation{Branch: branch}).RunManifest(context.Background(), topology.environment(ProjectTypeRepo)), ErrFinishUnsupported)
	require.ErrorIs(t, (FinishOperation{Branch: branch}).RunSingleRepository(context.Background(), topology.environment(ProjectTypeGit)), ErrFinishUnsupported)
}

func TestFinishSingleRepositoryHotfixRecordsBase(t *testing.T) {
	topology := newFakeTopology(t)
	environment := topology.environment(ProjectTypeGit)
	branch, _ := NewBranch(BranchTypeHotfix, "1.2.1")

	require.NoError(t, (FinishOperation{Branch: branch, Base: "master"}).RunSingleRepository(context.Background(), environment))

	require.Equal(t, "master", topology.manifestRepository().config["gitflow.branch.hotfix/1.2.1.base"])
	finishes := topology.callsOf("flow-finish")
	require.Len(t, finishes, 1)
	require.Equal(t, []string{"hotfix", "1.2.1", "false", fakeTagMessageConstant}, finishes[0].arguments)
}
