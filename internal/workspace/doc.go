// Package workspace owns the application's working directories: idempotent
// scaffolding during setup and the factory reset of application state.
package workspace
