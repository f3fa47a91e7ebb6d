// Package gitflow wraps the git-flow AVH extension. Branch roles and recorded
// branch bases live in repository git config under the gitflow.branch keys.
package gitflow
