package branching

import (
	"context"
	"errors"
)

const (
	resetOperationNameConstant = "reset"
	resetSingleRepositoryHint  = "use git reset --hard instead"
)

// ResetOperation hard-resets every unlocked project to its manifest revision.
type ResetOperation struct {
	singleRepositoryUnsupported
}

// NewResetOperation constructs a ResetOperation.
func NewResetOperation() ResetOperation {
	return ResetOperation{singleRepositoryUnsupported: singleRepositoryUnsupported{operationName: resetOperationNameConstant, hint: resetSingleRepositoryHint}}
}

// Name identifies the operation.
func (ResetOperation) Name() string {
	return resetOperationNameConstant
}

// RunManifest resets each unlocked project. Failures are collected and do not stop the pass.
func (ResetOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	loaded, loadError := environment.loadManifest()
	if loadError != nil {
		return loadError
	}
	var resetErrors []error
	for _, project := range loaded.Projects {
		if !environment.operatingOn(project) {
			continue
		}
		resetErrors = append(resetErrors, environment.Git.HardReset(executionContext, environment.projectDirectory(project), project.Revision))
	}
	return errors.Join(resetErrors...)
}
