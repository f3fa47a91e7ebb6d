package branching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/temirov/sc/internal/execshell"
	"github.com/temirov/sc/internal/gitflow"
	"github.com/temirov/sc/internal/manifest"
	"github.com/temirov/sc/internal/reposync"
)

const (
	fakeTopologyRootConstant    = "/topology"
	fakeManifestMessageConstant = "Update manifest"
	fakeTagMessageConstant      = "Tagged"
	fakeOriginRemoteConstant    = "origin"
)

type fakeRepository struct {
	currentBranch string
	detachedHead  string
	branches      map[string]string
	remotes       map[string]map[string]string
	config        map[string]string
	tags          map[string]bool
	dirty         bool
}

func (repository *fakeRepository) head() string {
	if len(repository.currentBranch) > 0 {
		return repository.branches[repository.currentBranch]
	}
	return repository.detachedHead
}

func (repository *fakeRepository) knownCommit(commit string) bool {
	for _, branchCommit := range repository.branches {
		if branchCommit == commit {
			return true
		}
	}
	for _, remoteBranches := range repository.remotes {
		for _, branchCommit := range remoteBranches {
			if branchCommit == commit {
				return true
			}
		}
	}
	return false
}

// fakeGitFlow exposes the git-flow side of a fakeTopology.
type fakeGitFlow struct {
	topology *fakeTopology
}

type fakeCall struct {
	repository string
	operation  string
	arguments  []string
}

// fakeTopology is an in-memory manifest topology implementing every branching collaborator.
type fakeTopology struct {
	t              *testing.T
	repositories   map[string]*fakeRepository
	manifest       *manifest.Manifest
	savedRevisions map[string]string
	saves          int
	syncs          []reposync.SyncOptions
	calls          []fakeCall
	failures       map[string]error
	prompts        []string
	commitMessages map[string][]string
	commitCounter  int
	statusReport   string
}

func newFakeTopology(t *testing.T) *fakeTopology {
	t.Helper()
	topology := &fakeTopology{
		t:              t,
		repositories:   map[string]*fakeRepository{},
		manifest:       &manifest.Manifest{DefaultRemote: fakeOriginRemoteConstant, DefaultRevision: "develop"},
		savedRevisions: map[string]string{},
		failures:       map[string]error{},
		commitMessages: map[string][]string{},
	}
	manifestRepository := topology.addRepository(manifest.ManifestsDirectory(fakeTopologyRootConstant), "develop")
	manifestRepository.config["gitflow.branch.master"] = "master"
	manifestRepository.config["gitflow.branch.develop"] = "develop"
	return topology
}

func (topology *fakeTopology) addRepository(path string, currentBranch string) *fakeRepository {
	developCommit := topology.nextCommit()
	masterCommit := topology.nextCommit()
	repository := &fakeRepository{
		currentBranch: currentBranch,
		branches:      map[string]string{"develop": developCommit, "master": masterCommit},
		remotes: map[string]map[string]string{
			fakeOriginRemoteConstant: {"develop": developCommit, "master": masterCommit},
		},
		config: map[string]string{},
		tags:   map[string]bool{},
	}
	topology.repositories[path] = repository
	return repository
}

// addProject registers a project on develop with git-flow conventions in place.
func (topology *fakeTopology) addProject(name string, lockStatus manifest.LockStatus) *fakeRepository {
	repository := topology.addRepository(topology.projectPath(name), "develop")
	repository.config["gitflow.branch.master"] = "master"
	repository.config["gitflow.branch.develop"] = "develop"
	topology.manifest.Projects = append(topology.manifest.Projects, &manifest.Project{
		Name:       name,
		Path:       name,
		Remote:     fakeOriginRemoteConstant,
		Revision:   repository.branches["develop"],
		LockStatus: lockStatus,
	})
	topology.savedRevisions[name] = repository.branches["develop"]
	return repository
}

func (topology *fakeTopology) projectPath(name string) string {
	return fakeTopologyRootConstant + "/" + name
}

func (topology *fakeTopology) manifestRepository() *fakeRepository {
	return topology.repository(manifest.ManifestsDirectory(fakeTopologyRootConstant))
}

func (topology *fakeTopology) project(name string) *fakeRepository {
	return topology.repository(topology.projectPath(name))
}

func (topology *fakeTopology) repository(path string) *fakeRepository {
	repository, found := topology.repositories[path]
	if !found {
		topology.t.Fatalf("unknown repository %s", path)
	}
	return repository
}

func (topology *fakeTopology) nextCommit() string {
	topology.commitCounter++
	return fmt.Sprintf("c%04d", topology.commitCounter)
}

func (topology *fakeTopology) failOn(operation string, path string) {
	topology.failures[operation+" "+path] = topology.commandFailure(operation, path)
}

func (topology *fakeTopology) commandFailure(operation string, path string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{operation}, WorkingDirectory: path}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: operation + " failed"},
	}
}

func (topology *fakeTopology) record(path string, operation string, arguments ...string) error {
	topology.calls = append(topology.calls, fakeCall{repository: path, operation: operation, arguments: arguments})
	if failure, found := topology.failures[operation+" "+path]; found {
		return failure
	}
	return nil
}

func (topology *fakeTopology) callsOf(operation string) []fakeCall {
	var matches []fakeCall
	for _, call := range topology.calls {
		if call.operation == operation {
			matches = append(matches, call)
		}
	}
	return matches
}

func (topology *fakeTopology) callsIn(path string, operation string) []fakeCall {
	var matches []fakeCall
	for _, call := range topology.callsOf(operation) {
		if call.repository == path {
			matches = append(matches, call)
		}
	}
	return matches
}

func (topology *fakeTopology) mutatingCalls() []fakeCall {
	readOnlyOperations := map[string]bool{
		"local-branches": true, "remote-branches": true, "remotes": true, "remote-heads": true,
		"current-branch": true, "head-commit": true, "branch-commit": true, "remote-contains": true,
		"has-changes": true, "status": true, "flow-base": true, "flow-enabled": true, "flow-develop": true, "flow-master": true,
	}
	var matches []fakeCall
	for _, call := range topology.calls {
		if !readOnlyOperations[call.operation] {
			matches = append(matches, call)
		}
	}
	return matches
}

func (topology *fakeTopology) environment(projectType ProjectType) *Environment {
	root := fakeTopologyRootConstant
	if projectType == ProjectTypeGit {
		root = manifest.ManifestsDirectory(fakeTopologyRootConstant)
	}
	return &Environment{
		Topology:     Topology{Root: root, Type: projectType},
		Git:          topology,
		GitFlow:      fakeGitFlow{topology: topology},
		Manifests:    topology,
		Synchronizer: topology,
		Prompter:     topology,
		Output:       &strings.Builder{},
		Settings:     Settings{ManifestRemote: fakeOriginRemoteConstant, RefreshLargeFiles: true, CleanExcludes: []string{".repo*"}},
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (topology *fakeTopology) createBranch(path string, repository *fakeRepository, branchName string, commit string) error {
	if _, exists := repository.branches[branchName]; exists {
		return topology.commandFailure("branch-exists", path)
	}
	repository.branches[branchName] = commit
	repository.currentBranch = branchName
	repository.detachedHead = ""
	return nil
}

func (topology *fakeTopology) resolveReference(repository *fakeRepository, reference string) (string, bool) {
	if commit, found := repository.branches[reference]; found {
		return commit, true
	}
	if remoteName, branchName, found := strings.Cut(reference, "/"); found {
		if commit, remoteFound := repository.remotes[remoteName][branchName]; remoteFound {
			return commit, true
		}
	}
	if repository.knownCommit(reference) {
		return reference, true
	}
	return "", false
}

func (topology *fakeTopology) Fetch(_ context.Context, path string, remoteName string, references ...string) error {
	if failure := topology.record(path, "fetch", append([]string{remoteName}, references...)...); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	for _, reference := range references {
		source, destination, _ := strings.Cut(reference, ":")
		commit, found := repository.remotes[remoteName][source]
		if !found {
			return topology.commandFailure("fetch", path)
		}
		repository.branches[destination] = commit
	}
	return nil
}

func (topology *fakeTopology) Checkout(_ context.Context, path string, reference string) error {
	if failure := topology.record(path, "checkout", reference); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if _, found := repository.branches[reference]; found {
		repository.currentBranch = reference
		repository.detachedHead = ""
		return nil
	}
	for _, remoteName := range sortedKeys(repository.remotes) {
		if commit, found := repository.remotes[remoteName][reference]; found {
			return topology.createBranch(path, repository, reference, commit)
		}
	}
	if repository.knownCommit(reference) {
		repository.currentBranch = ""
		repository.detachedHead = reference
		return nil
	}
	return topology.commandFailure("checkout", path)
}

func (topology *fakeTopology) CheckoutNewBranch(_ context.Context, path string, branchName string, startPoint string) error {
	if failure := topology.record(path, "checkout-new", branchName, startPoint); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	commit := repository.head()
	if len(startPoint) > 0 {
		resolved, found := topology.resolveReference(repository, startPoint)
		if !found {
			return topology.commandFailure("checkout-new", path)
		}
		commit = resolved
	}
	return topology.createBranch(path, repository, branchName, commit)
}

func (topology *fakeTopology) CheckoutTrackingBranch(_ context.Context, path string, branchName string, remoteReference string) error {
	if failure := topology.record(path, "checkout-tracking", branchName, remoteReference); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	commit, found := topology.resolveReference(repository, remoteReference)
	if !found {
		return topology.commandFailure("checkout-tracking", path)
	}
	return topology.createBranch(path, repository, branchName, commit)
}

func (topology *fakeTopology) CheckoutDetached(_ context.Context, path string, commit string) error {
	if failure := topology.record(path, "checkout-detached", commit); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	repository.currentBranch = ""
	repository.detachedHead = commit
	return nil
}

func (topology *fakeTopology) Switch(_ context.Context, path string, branchName string) error {
	if failure := topology.record(path, "switch", branchName); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if _, found := repository.branches[branchName]; !found {
		return topology.commandFailure("switch", path)
	}
	repository.currentBranch = branchName
	repository.detachedHead = ""
	return nil
}

func (topology *fakeTopology) SwitchCreate(_ context.Context, path string, branchName string) error {
	if failure := topology.record(path, "switch-create", branchName); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	return topology.createBranch(path, repository, branchName, repository.head())
}

func (topology *fakeTopology) SwitchForceCreate(_ context.Context, path string, branchName string, startPoint string) error {
	if failure := topology.record(path, "switch-force-create", branchName, startPoint); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	repository.branches[branchName] = repository.head()
	repository.currentBranch = branchName
	repository.detachedHead = ""
	return nil
}

func (topology *fakeTopology) SetUpstream(_ context.Context, path string, branchName string, remoteReference string) error {
	return topology.record(path, "set-upstream", branchName, remoteReference)
}

func (topology *fakeTopology) Merge(_ context.Context, path string, reference string) error {
	return topology.record(path, "merge", reference)
}

func (topology *fakeTopology) Pull(_ context.Context, path string, remoteName string, branchName string) error {
	if failure := topology.record(path, "pull", remoteName, branchName); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if commit, found := repository.remotes[remoteName][branchName]; found && repository.currentBranch == branchName {
		repository.branches[branchName] = commit
	}
	return nil
}

func (topology *fakeTopology) Push(_ context.Context, path string, remoteName string, branchName string, setUpstream bool) error {
	if failure := topology.record(path, "push", remoteName, branchName, fmt.Sprint(setUpstream)); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	commit, found := repository.branches[branchName]
	if !found {
		return topology.commandFailure("push", path)
	}
	if repository.remotes[remoteName] == nil {
		repository.remotes[remoteName] = map[string]string{}
	}
	repository.remotes[remoteName][branchName] = commit
	return nil
}

func (topology *fakeTopology) PushTags(_ context.Context, path string) error {
	return topology.record(path, "push-tags")
}

func (topology *fakeTopology) DeleteTag(_ context.Context, path string, tagName string) error {
	if failure := topology.record(path, "delete-tag", tagName); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if !repository.tags[tagName] {
		return topology.commandFailure("delete-tag", path)
	}
	delete(repository.tags, tagName)
	return nil
}

func (topology *fakeTopology) RemoteContains(_ context.Context, path string, remoteName string, commit string) (bool, error) {
	if failure := topology.record(path, "remote-contains", remoteName, commit); failure != nil {
		return false, failure
	}
	for _, branchCommit := range topology.repository(path).remotes[remoteName] {
		if branchCommit == commit {
			return true, nil
		}
	}
	return false, nil
}

func (topology *fakeTopology) LocalBranches(_ context.Context, path string) ([]string, error) {
	if failure := topology.record(path, "local-branches"); failure != nil {
		return nil, failure
	}
	return sortedKeys(topology.repository(path).branches), nil
}

func (topology *fakeTopology) RemoteBranches(_ context.Context, path string, remoteName string) ([]string, error) {
	if failure := topology.record(path, "remote-branches", remoteName); failure != nil {
		return nil, failure
	}
	return sortedKeys(topology.repository(path).remotes[remoteName]), nil
}

func (topology *fakeTopology) Remotes(_ context.Context, path string) ([]string, error) {
	if failure := topology.record(path, "remotes"); failure != nil {
		return nil, failure
	}
	return sortedKeys(topology.repository(path).remotes), nil
}

func (topology *fakeTopology) RemoteHeads(_ context.Context, path string, remoteName string) ([]string, error) {
	if failure := topology.record(path, "remote-heads", remoteName); failure != nil {
		return nil, failure
	}
	if failure, found := topology.failures["remote-heads "+path+" "+remoteName]; found {
		return nil, failure
	}
	return sortedKeys(topology.repository(path).remotes[remoteName]), nil
}

func (topology *fakeTopology) CurrentBranch(_ context.Context, path string) (string, error) {
	if failure := topology.record(path, "current-branch"); failure != nil {
		return "", failure
	}
	return topology.repository(path).currentBranch, nil
}

func (topology *fakeTopology) HeadCommit(_ context.Context, path string) (string, error) {
	if failure := topology.record(path, "head-commit"); failure != nil {
		return "", failure
	}
	return topology.repository(path).head(), nil
}

func (topology *fakeTopology) BranchCommit(_ context.Context, path string, branchName string) (string, error) {
	if failure := topology.record(path, "branch-commit", branchName); failure != nil {
		return "", failure
	}
	commit, found := topology.repository(path).branches[branchName]
	if !found {
		return "", topology.commandFailure("branch-commit", path)
	}
	return commit, nil
}

func (topology *fakeTopology) StageAll(_ context.Context, path string) error {
	return topology.record(path, "stage-all")
}

func (topology *fakeTopology) HasChanges(_ context.Context, path string) (bool, error) {
	if failure := topology.record(path, "has-changes"); failure != nil {
		return false, failure
	}
	return topology.repository(path).dirty, nil
}

func (topology *fakeTopology) Commit(_ context.Context, path string, message string, allowEmpty bool) error {
	if failure := topology.record(path, "commit", message, fmt.Sprint(allowEmpty)); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if !repository.dirty && !allowEmpty {
		return topology.commandFailure("commit", path)
	}
	commit := topology.nextCommit()
	if len(repository.currentBranch) > 0 {
		repository.branches[repository.currentBranch] = commit
	} else {
		repository.detachedHead = commit
	}
	repository.dirty = false
	topology.commitMessages[path] = append(topology.commitMessages[path], message)
	return nil
}

func (topology *fakeTopology) Clean(_ context.Context, path string, excludedPatterns []string) error {
	return topology.record(path, "clean", excludedPatterns...)
}

func (topology *fakeTopology) HardReset(_ context.Context, path string, revision string) error {
	return topology.record(path, "hard-reset", revision)
}

func (topology *fakeTopology) Status(_ context.Context, path string) (string, error) {
	if failure := topology.record(path, "status"); failure != nil {
		return "", failure
	}
	if path == fakeTopologyRootConstant {
		return topology.statusReport, nil
	}
	return "On branch " + topology.repository(path).currentBranch + "\n", nil
}

func (topology *fakeTopology) RefreshLargeFiles(_ context.Context, path string) error {
	return topology.record(path, "lfs-refresh")
}

func (flow fakeGitFlow) Init(_ context.Context, path string) error {
	topology := flow.topology
	return topology.record(path, "flow-init")
}

func (flow fakeGitFlow) Start(_ context.Context, path string, branchType string, name string, base string) error {
	topology := flow.topology
	if failure := topology.record(path, "flow-start", branchType, name, base); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if len(base) == 0 {
		base = repository.config["gitflow.branch.develop"]
	}
	return topology.createBranch(path, repository, branchType+"/"+name, repository.branches[base])
}

func (flow fakeGitFlow) Finish(_ context.Context, path string, options gitflow.FinishOptions) error {
	topology := flow.topology
	if failure := topology.record(path, "flow-finish", options.BranchType, options.Name, fmt.Sprint(options.KeepBranch), options.TagMessage); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	if options.BranchType == string(BranchTypeRelease) || options.BranchType == string(BranchTypeHotfix) {
		if repository.tags[options.Name] {
			return topology.commandFailure("flow-finish", path)
		}
		repository.tags[options.Name] = true
	}
	return nil
}

func (flow fakeGitFlow) SetBranchBase(_ context.Context, path string, branchName string, base string) error {
	topology := flow.topology
	if failure := topology.record(path, "flow-set-base", branchName, base); failure != nil {
		return failure
	}
	topology.repository(path).config["gitflow.branch."+branchName+".base"] = base
	return nil
}

func (flow fakeGitFlow) BranchBase(_ context.Context, path string, branchName string) (string, error) {
	topology := flow.topology
	if failure := topology.record(path, "flow-base", branchName); failure != nil {
		return "", failure
	}
	return topology.repository(path).config["gitflow.branch."+branchName+".base"], nil
}

func (flow fakeGitFlow) SetPrimaryBranch(_ context.Context, path string, role string, branchName string) error {
	topology := flow.topology
	if failure := topology.record(path, "flow-set-primary", role, branchName); failure != nil {
		return failure
	}
	topology.repository(path).config["gitflow.branch."+role] = branchName
	return nil
}

func (flow fakeGitFlow) DevelopBranch(_ context.Context, path string) (string, error) {
	topology := flow.topology
	if failure := topology.record(path, "flow-develop"); failure != nil {
		return "", failure
	}
	return topology.repository(path).config["gitflow.branch.develop"], nil
}

func (flow fakeGitFlow) MasterBranch(_ context.Context, path string) (string, error) {
	topology := flow.topology
	if failure := topology.record(path, "flow-master"); failure != nil {
		return "", failure
	}
	return topology.repository(path).config["gitflow.branch.master"], nil
}

func (flow fakeGitFlow) IsEnabled(_ context.Context, path string) (bool, error) {
	topology := flow.topology
	if failure := topology.record(path, "flow-enabled"); failure != nil {
		return false, failure
	}
	config := topology.repository(path).config
	return len(config["gitflow.branch.master"]) > 0 && len(config["gitflow.branch.develop"]) > 0, nil
}

func (flow fakeGitFlow) Checkout(_ context.Context, path string, branchType string, name string) error {
	topology := flow.topology
	if failure := topology.record(path, "flow-checkout", branchType, name); failure != nil {
		return failure
	}
	repository := topology.repository(path)
	branchName := branchType + "/" + name
	if _, found := repository.branches[branchName]; !found {
		return topology.commandFailure("flow-checkout", path)
	}
	repository.currentBranch = branchName
	repository.detachedHead = ""
	return nil
}

func (topology *fakeTopology) Load(string) (*manifest.Manifest, error) {
	return topology.manifest, nil
}

// Save marks the manifest working tree dirty when a recorded revision changed.
func (topology *fakeTopology) Save(saved *manifest.Manifest) error {
	topology.saves++
	if failure, found := topology.failures["save "+fakeTopologyRootConstant]; found {
		return failure
	}
	for _, project := range saved.Projects {
		if topology.savedRevisions[project.Name] != project.Revision {
			topology.savedRevisions[project.Name] = project.Revision
			topology.manifestRepository().dirty = true
		}
	}
	return nil
}

func (topology *fakeTopology) Sync(_ context.Context, _ string, options reposync.SyncOptions) error {
	topology.syncs = append(topology.syncs, options)
	return topology.record(fakeTopologyRootConstant, "sync")
}

func (topology *fakeTopology) PromptMessage(prompt string) (string, error) {
	topology.prompts = append(topology.prompts, prompt)
	if strings.Contains(prompt, "tag") {
		return fakeTagMessageConstant, nil
	}
	return fakeManifestMessageConstant, nil
}
