// Package branching builds the branch-type command groups (feature, develop,
// master, release, hotfix, support) and the topology-wide commands (init,
// status, clean, reset) that drive the branching service.
package branching
