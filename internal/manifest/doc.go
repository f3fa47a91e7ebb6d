// Package manifest models the repo XML manifest that governs a topology: the
// projects it pins, their lock status and alternate primary branch names, and
// the post-sync hooks. FileStore reads the manifest through its include chain
// and writes revision changes back to the file each project was declared in.
package manifest
