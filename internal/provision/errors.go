package provision

import "errors"

// Setup and launch failure taxonomy. Components wrap these with %w so
// callers classify failures with errors.Is.
var (
	ErrEnvironmentCreation       = errors.New("provision: environment creation failed")
	ErrEnvironmentNotProvisioned = errors.New("provision: environment not provisioned")
	ErrDependencyInstall         = errors.New("provision: dependency install failed")
	ErrToolDownload              = errors.New("provision: tool download failed")
	ErrToolVerification          = errors.New("provision: tool archive verification failed")
	ErrToolExtraction            = errors.New("provision: tool extraction failed")
	ErrDirectoryCreation         = errors.New("provision: directory creation failed")
	ErrApplicationLaunch         = errors.New("provision: application launch failed")

	ErrResourceExists  = errors.New("provision: resource already exists")
	ErrResourceNil     = errors.New("provision: resource is nil")
	ErrInvalidResource = errors.New("provision: invalid resource metadata")
)
