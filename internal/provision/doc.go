// Package provision owns the declarative desired-state model used by setup.
//
// Ownership boundary:
// - resource metadata and the Resource contract (Check, Ensure)
// - ordered plan application with halt-on-first-failure
// - lifecycle phase derivation
// - setup and launch error taxonomy
package provision
