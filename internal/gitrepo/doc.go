// Package gitrepo contains the version-control primitives branch orchestration
// runs against a single repository: checkouts, merges, pushes, tags, config,
// ref listing, and large-file refresh. Every call goes through a GitExecutor so
// tests can record the exact git invocations.
package gitrepo
