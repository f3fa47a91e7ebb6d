package branching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sc/internal/manifest"
)

func TestNewBranchNames(t *testing.T) {
	testCases := []struct {
		name         string
		branchType   BranchType
		suffix       string
		expectedName string
	}{
		{name: "feature", branchType: BranchTypeFeature, suffix: "foo", expectedName: "feature/foo"},
		{name: "release_version", branchType: BranchTypeRelease, suffix: " 1.2.0 ", expectedName: "release/1.2.0"},
		{name: "nested_suffix", branchType: BranchTypeHotfix, suffix: "1.2.1/urgent", expectedName: "hotfix/1.2.1/urgent"},
		{name: "develop", branchType: BranchTypeDevelop, expectedName: "develop"},
		{name: "master", branchType: BranchTypeMaster, expectedName: "master"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			branch, branchError := NewBranch(testCase.branchType, testCase.suffix)
			require.NoError(t, branchError)
			require.Equal(t, testCase.expectedName, branch.Name())
			require.Equal(t, testCase.expectedName, branch.String())
			require.Equal(t, testCase.branchType, branch.Type())
		})
	}
}

func TestNewBranchRejectsMissingSuffix(t *testing.T) {
	for _, branchType := range []BranchType{BranchTypeFeature, BranchTypeRelease, BranchTypeSupport, BranchTypeHotfix} {
		_, branchError := NewBranch(branchType, "  ")
		require.ErrorIs(t, branchError, ErrSuffixRequired, string(branchType))
	}
}

func TestNewBranchRejectsUnknownType(t *testing.T) {
	_, branchError := NewBranch(BranchType("bugfix"), "foo")
	require.ErrorIs(t, branchError, ErrUnknownBranchType)
}

func TestParseBranchNameRoundTrips(t *testing.T) {
	for _, name := range []string{"feature/foo", "release/1.2", "hotfix/1.2.1/urgent", "support/2.x", "develop", "master"} {
		parsed, parseError := ParseBranchName(name)
		require.NoError(t, parseError, name)
		require.Equal(t, name, parsed.Name())

		rebuilt, rebuildError := NewBranch(parsed.Type(), parsed.Suffix())
		require.NoError(t, rebuildError)
		require.Equal(t, parsed, rebuilt)
	}
}

func TestParseBranchNameRejectsInvalidNames(t *testing.T) {
	_, unknownError := ParseBranchName("topic/foo")
	require.ErrorIs(t, unknownError, ErrUnknownBranchType)

	_, suffixError := ParseBranchName("feature/")
	require.ErrorIs(t, suffixError, ErrSuffixRequired)
}

func TestProjectBranchNameAppliesAlternativesByType(t *testing.T) {
	project := &manifest.Project{Name: "app", AlternativeMaster: "main", AlternativeDevelop: "dev"}
	plain := &manifest.Project{Name: "lib"}

	master, _ := NewBranch(BranchTypeMaster, "")
	develop, _ := NewBranch(BranchTypeDevelop, "")
	feature, _ := NewBranch(BranchTypeFeature, "foo")

	require.Equal(t, "main", ProjectBranchName(master, project))
	require.Equal(t, "dev", ProjectBranchName(develop, project))
	require.Equal(t, "feature/foo", ProjectBranchName(feature, project))
	require.Equal(t, "master", ProjectBranchName(master, plain))
	require.Equal(t, "develop", ProjectBranchName(develop, plain))
}
