package branching

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/sc/internal/branching"
	"github.com/temirov/sc/internal/utils"
)

const serviceProviderMissingMessageConstant = "branching service provider not configured"

var errServiceProviderMissing = errors.New(serviceProviderMissingMessageConstant)

// Service is the branching surface the commands drive.
type Service interface {
	Init(executionContext context.Context, request branching.Request) error
	Start(executionContext context.Context, request branching.Request) error
	Checkout(executionContext context.Context, request branching.Request) error
	Pull(executionContext context.Context, request branching.Request) error
	Push(executionContext context.Context, request branching.Request) error
	Finish(executionContext context.Context, request branching.Request) error
	List(executionContext context.Context, request branching.Request) error
	Status(executionContext context.Context, request branching.Request) error
	Clean(executionContext context.Context, request branching.Request) error
	Reset(executionContext context.Context, request branching.Request) error
}

// ServiceProvider builds the service for the executing command.
type ServiceProvider func(command *cobra.Command) (Service, error)

type serviceAction func(service Service, executionContext context.Context, request branching.Request) error

func runServiceAction(command *cobra.Command, provider ServiceProvider, action serviceAction, request branching.Request) error {
	if provider == nil {
		return errServiceProviderMissing
	}
	service, serviceError := provider(command)
	if serviceError != nil {
		return serviceError
	}
	return action(service, command.Context(), request)
}

// resolveRunDirectory reads the run directory the root command stored in the execution context.
func resolveRunDirectory(command *cobra.Command) string {
	runDirectory, _ := utils.NewCommandContextAccessor().RunDirectory(command.Context())
	return strings.TrimSpace(runDirectory)
}

func argumentAt(arguments []string, index int) string {
	if index >= len(arguments) {
		return ""
	}
	return strings.TrimSpace(arguments[index])
}
