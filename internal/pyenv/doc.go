// Package pyenv provisions the application's isolated Python environment:
// venv creation, explicit activation and installation of the dependency set
// with platform-conditional substitutions.
package pyenv
