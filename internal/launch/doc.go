// Package launch starts the application inside the provisioned environment.
//
// The child process receives a copy of the operator's environment with an
// Overlay applied: the external tool's bin dir and the environment's bin dir
// are prepended to PATH, VIRTUAL_ENV is set and PYTHONHOME is dropped. The
// operator's own process environment is never modified. After the child exits
// the console is held open by a Pauser so output stays visible.
package launch
