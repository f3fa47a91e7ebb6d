package branching

import (
	"errors"
	"fmt"
)

const (
	initializationMessageTemplateConstant   = "sc is not initialised in %s! Run `sc init`"
	finishFailureMessageTemplateConstant    = "Finish failed in %s: %v\nPlease resolve error and rerun sc finish."
	topologyNotFoundMessageTemplateConstant = "not in a repo project or git repository: %s"
	strategyNotSupportedTemplateConstant    = "%s is not supported for %s projects"
	strategyHintTemplateConstant            = "%s; %s"
	finishUnsupportedMessageConstant        = "support branches cannot be finished"
)

// ErrFinishUnsupported indicates a branch type without a finish workflow.
var ErrFinishUnsupported = errors.New(finishUnsupportedMessageConstant)

// InitializationError reports a topology whose manifest has no git-flow conventions yet.
type InitializationError struct {
	Directory string
}

// Error describes the missing initialization.
func (initializationError InitializationError) Error() string {
	return fmt.Sprintf(initializationMessageTemplateConstant, initializationError.Directory)
}

// ResolutionError reports a branch or reference that cannot be derived or found.
type ResolutionError struct {
	Reference string
	Message   string
}

// Error returns the resolution failure message.
func (resolutionError ResolutionError) Error() string {
	return resolutionError.Message
}

// FinishOperationError reports the first repository a finish pass failed in.
type FinishOperationError struct {
	Path  string
	Cause error
}

// Error names the failing repository and the remediation hint.
func (finishError FinishOperationError) Error() string {
	return fmt.Sprintf(finishFailureMessageTemplateConstant, finishError.Path, finishError.Cause)
}

// Unwrap exposes the underlying failure.
func (finishError FinishOperationError) Unwrap() error {
	return finishError.Cause
}

// TopologyNotFoundError reports a run directory outside any topology or repository.
type TopologyNotFoundError struct {
	Directory string
}

// Error describes the missing topology.
func (topologyError TopologyNotFoundError) Error() string {
	return fmt.Sprintf(topologyNotFoundMessageTemplateConstant, topologyError.Directory)
}

// StrategyNotSupportedError reports an operation without a strategy for the project type.
type StrategyNotSupportedError struct {
	Operation   string
	ProjectType ProjectType
	Hint        string
}

// Error describes the unsupported combination and the suggested alternative.
func (strategyError StrategyNotSupportedError) Error() string {
	message := fmt.Sprintf(strategyNotSupportedTemplateConstant, strategyError.Operation, strategyError.ProjectType)
	if len(strategyError.Hint) == 0 {
		return message
	}
	return fmt.Sprintf(strategyHintTemplateConstant, message, strategyError.Hint)
}
