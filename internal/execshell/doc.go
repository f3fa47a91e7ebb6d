// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers. OSCommandRunner is the os/exec backed default. The git and repo
// adapters of sc run every external process through this package, which keeps
// them testable with recording runners.
package execshell
