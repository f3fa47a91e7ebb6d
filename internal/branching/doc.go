// Package branching coordinates a GitFlow branching workflow over either a
// single git repository or a manifest topology: a manifest repository at
// .repo/manifests plus every project it references.
//
// Each operation implements both a single-repository and a manifest strategy.
// Manifest strategies iterate projects sequentially in manifest order and skip
// projects that carry a lock status wherever branch state would be mutated.
package branching
