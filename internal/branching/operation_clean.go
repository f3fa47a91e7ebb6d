package branching

import (
	"context"
	"errors"
)

const cleanOperationNameConstant = "clean"

// CleanOperation removes untracked and ignored files, keeping topology metadata.
type CleanOperation struct{}

// Name identifies the operation.
func (CleanOperation) Name() string {
	return cleanOperationNameConstant
}

// RunSingleRepository cleans the repository.
func (CleanOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	return environment.Git.Clean(executionContext, environment.Topology.Root, environment.Settings.CleanExcludes)
}

// RunManifest cleans every unlocked project and then the manifest. Failures are collected
// and do not stop the pass.
func (CleanOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	var cleanErrors []error
	for _, project := range loaded.Projects {
		if !environment.operatingOn(project) {
			continue
		}
		cleanErrors = append(cleanErrors, environment.Git.Clean(executionContext, environment.projectDirectory(project), environment.Settings.CleanExcludes))
	}
	cleanErrors = append(cleanErrors, environment.Git.Clean(executionContext, environment.manifestDirectory(), environment.Settings.CleanExcludes))
	return errors.Join(cleanErrors...)
}
