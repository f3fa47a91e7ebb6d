// Package cli constructs the sc command-line interface, wiring the Cobra
// command hierarchy, layered configuration, and structured logging around the
// branch orchestration service. It exposes helpers to build reusable
// application instances and to execute the default command set.
package cli
