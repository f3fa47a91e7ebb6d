// Package reposync drives the repo tool that materializes a manifest topology
// on disk: sync with its checkout flags and the aggregated status report.
package reposync
