// Package tools provides reusable runtime helpers shared by provisioning and launch.
//
// Ownership boundary:
// - command execution helpers (captured and streamed)
//
// - exit code normalization
package tools
