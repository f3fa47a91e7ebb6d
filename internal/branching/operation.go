package branching

import "context"

// Operation is a branching workflow step with a strategy per project type.
type Operation interface {
	Name() string
	RunSingleRepository(executionContext context.Context, environment *Environment) error
	RunManifest(executionContext context.Context, environment *Environment) error
}

// singleRepositoryUnsupported is embedded by operations without a single-repository strategy.
type singleRepositoryUnsupported struct {
	operationName string
	hint          string
}

func (unsupported singleRepositoryUnsupported) RunSingleRepository(context.Context, *Environment) error {
	return StrategyNotSupportedError{Operation: unsupported.operationName, ProjectType: ProjectTypeGit, Hint: unsupported.hint}
}

// runOperation dispatches the operation to the strategy matching the topology.
func runOperation(executionContext context.Context, operation Operation, environment *Environment) error {
	switch environment.Topology.Type {
	case ProjectTypeGit:
		return operation.RunSingleRepository(executionContext, environment)
	case ProjectTypeRepo:
		return operation.RunManifest(executionContext, environment)
	default:
		return StrategyNotSupportedError{Operation: operation.Name(), ProjectType: environment.Topology.Type}
	}
}
