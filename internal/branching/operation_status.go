package branching

import (
	"context"
	"io"
)

const statusOperationNameConstant = "status"

// StatusOperation reports the working state of the repository or topology.
type StatusOperation struct{}

// Name identifies the operation.
func (StatusOperation) Name() string {
	return statusOperationNameConstant
}

// RunSingleRepository prints git status.
func (StatusOperation) RunSingleRepository(executionContext context.Context, environment *Environment) error {
	report, statusError := environment.Git.Status(executionContext, environment.Topology.Root)
	if statusError != nil {
		return statusError
	}
	_, writeError := io.WriteString(environment.output(), report)
	return writeError
}

// RunManifest prints the topology-wide repo status.
func (StatusOperation) RunManifest(executionContext context.Context, environment *Environment) error {
	report, statusError := environment.Synchronizer.Status(executionContext, environment.Topology.Root)
	if statusError != nil {
		return statusError
	}
	_, writeError := io.WriteString(environment.output(), report)
	return writeError
}
