package execshell

// CommandStage identifies a point in the lifecycle of an external command.
type CommandStage int

// Lifecycle stages reported to observers.
const (
	CommandStageStarted CommandStage = iota
	CommandStageCompleted
	CommandStageExecutionFailed
)

// CommandEvent is delivered to observers at every lifecycle stage.
// Result is set once the command completed; Failure only when it could not run.
type CommandEvent struct {
	Stage   CommandStage
	Command ShellCommand
	Result  ExecutionResult
	Failure error
}

// Succeeded reports whether the command completed with exit code zero.
func (event CommandEvent) Succeeded() bool {
	return event.Stage == CommandStageCompleted && event.Result.ExitCode == 0
}

// CommandEventObserver receives lifecycle events for commands run by ShellExecutor.
type CommandEventObserver interface {
	ObserveCommand(event CommandEvent)
}

// CommandEventObserverFunc adapts a plain function to CommandEventObserver.
type CommandEventObserverFunc func(event CommandEvent)

// ObserveCommand calls the wrapped function.
func (observerFunc CommandEventObserverFunc) ObserveCommand(event CommandEvent) {
	observerFunc(event)
}
