// Package toolpkg acquires pinned third-party binary tool packages.
//
// Acquisition is an explicit sequence: absent, downloading,
// extracted-to-staging, installed, staging-cleaned. The canonical install
// path is only ever populated by a single rename of a fully extracted and
// checked directory, so an interrupted run leaves it absent and a retry
// starts over. Archive and staging directory are created next to the
// canonical path and removed on every exit path.
package toolpkg
