package branching

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/sc/internal/filesystem"
)

const (
	serviceDependenciesMissingMessageConstant = "branching service requires file system, git, git flow, manifest store, synchronizer, and prompter dependencies"
	runningOperationMessageConstant           = "Running operation"
	logFieldRootConstant                      = "root"
)

// ErrServiceDependenciesMissing indicates the service was constructed without a collaborator.
var ErrServiceDependenciesMissing = errors.New(serviceDependenciesMissingMessageConstant)

// Dependencies configures the collaborators of the branching service.
type Dependencies struct {
	FileSystem   filesystem.FileSystem
	Git          GitOperations
	GitFlow      GitFlowOperations
	Manifests    ManifestStore
	Synchronizer TopologySynchronizer
	Prompter     MessagePrompter
	Output       io.Writer
	Logger       *zap.Logger
	Settings     Settings
}

// Request describes one branching command invocation.
type Request struct {
	RunDirectory string
	BranchType   BranchType
	Name         string
	Base         string
	Force        bool
	Verify       bool
}

// Service resolves the topology and branch of a request and runs the matching operation.
type Service struct {
	dependencies Dependencies
	detector     *Detector
}

// NewService constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.FileSystem == nil || dependencies.Git == nil || dependencies.GitFlow == nil || dependencies.Manifests == nil || dependencies.Synchronizer == nil || dependencies.Prompter == nil {
		return nil, ErrServiceDependenciesMissing
	}
	detector, detectorError := NewDetector(dependencies.FileSystem)
	if detectorError != nil {
		return nil, detectorError
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Service{dependencies: dependencies, detector: detector}, nil
}

// Init establishes git-flow conventions.
func (service *Service) Init(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, false, func(Branch) Operation {
		return InitOperation{}
	})
}

// Start creates a branch from the requested base.
func (service *Service) Start(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, true, func(branch Branch) Operation {
		return StartOperation{Branch: branch, Base: request.Base}
	})
}

// Checkout moves onto an existing branch.
func (service *Service) Checkout(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, true, func(branch Branch) Operation {
		return CheckoutOperation{Branch: branch, Force: request.Force, Verify: request.Verify}
	})
}

// Pull updates the branch from its remote.
func (service *Service) Pull(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, true, func(branch Branch) Operation {
		return PullOperation{Branch: branch}
	})
}

// Push publishes the branch.
func (service *Service) Push(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, true, func(branch Branch) Operation {
		return PushOperation{Branch: branch}
	})
}

// Finish merges and tags the branch.
func (service *Service) Finish(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, true, func(branch Branch) Operation {
		return FinishOperation{Branch: branch, Base: request.Base}
	})
}

// List prints the branches of the requested type.
func (service *Service) List(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, false, func(Branch) Operation {
		return ListOperation{BranchType: request.BranchType}
	})
}

// Status prints the working state.
func (service *Service) Status(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, false, func(Branch) Operation {
		return StatusOperation{}
	})
}

// Clean removes untracked and ignored files.
func (service *Service) Clean(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, false, func(Branch) Operation {
		return CleanOperation{}
	})
}

// Reset hard-resets projects to their manifest revisions.
func (service *Service) Reset(executionContext context.Context, request Request) error {
	return service.run(executionContext, request, false, func(Branch) Operation {
		return NewResetOperation()
	})
}

func (service *Service) run(executionContext context.Context, request Request, resolveBranch bool, build func(Branch) Operation) error {
	topology, detectError := service.detector.Detect(request.RunDirectory)
	if detectError != nil {
		return detectError
	}
	environment := service.environment(topology)

	var branch Branch
	if resolveBranch {
		resolved, resolveError := ResolveBranch(executionContext, environment, request.BranchType, request.Name)
		if resolveError != nil {
			return resolveError
		}
		branch = resolved
	}

	operation := build(branch)
	environment.logger().Debug(runningOperationMessageConstant, zap.String(logFieldOperationConstant, operation.Name()), zap.String(logFieldProjectTypeConstant, string(topology.Type)), zap.String(logFieldRootConstant, topology.Root))
	return runOperation(executionContext, operation, environment)
}

func (service *Service) environment(topology Topology) *Environment {
	return &Environment{
		Topology:     topology,
		Git:          service.dependencies.Git,
		GitFlow:      service.dependencies.GitFlow,
		Manifests:    service.dependencies.Manifests,
		Synchronizer: service.dependencies.Synchronizer,
		Prompter:     service.dependencies.Prompter,
		Output:       service.dependencies.Output,
		Logger:       service.dependencies.Logger,
		Settings:     service.dependencies.Settings,
	}
}
