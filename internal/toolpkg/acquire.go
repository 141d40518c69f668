package toolpkg

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danmuck/mergectl/internal/observability"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/rs/zerolog/log"
)

// Acquirer installs external tool packages at their canonical path.
type Acquirer struct {
	Client *http.Client
	Now    func() time.Time
	// OnTransition, when set, observes every state the sequence enters.
	OnTransition func(pkg Package, state State)
}

func NewAcquirer() *Acquirer {
	return &Acquirer{Client: http.DefaultClient, Now: time.Now}
}

// Ensure installs pkg unless its canonical path already exists. It reports
// whether an install happened. Temporary archive and staging artifacts live
// beside the canonical path and are removed on every return path.
func (a *Acquirer) Ensure(ctx context.Context, pkg Package) (bool, error) {
	present, err := pkg.Installed()
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", provision.ErrToolDownload, pkg.InstallPath, err)
	}
	if present {
		a.checkReceipt(pkg)
		return false, nil
	}
	a.transition(pkg, StateAbsent)

	parent := filepath.Dir(pkg.InstallPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return false, fmt.Errorf("%w: create %s: %v", provision.ErrToolDownload, parent, err)
	}

	a.transition(pkg, StateDownloading)
	archivePath, err := a.fetch(ctx, pkg, parent)
	if archivePath != "" {
		defer os.Remove(archivePath)
	}
	if err != nil {
		return false, err
	}

	if err := verify(pkg, archivePath); err != nil {
		return false, err
	}

	staging, err := os.MkdirTemp(parent, "."+pkg.Name+"-staging-*")
	if err != nil {
		return false, fmt.Errorf("%w: create staging: %v", provision.ErrToolExtraction, err)
	}
	defer os.RemoveAll(staging)

	if err := extract(ctx, archivePath, pkg.Format, staging); err != nil {
		return false, fmt.Errorf("%w: %s: %w", provision.ErrToolExtraction, pkg.Format, err)
	}
	a.transition(pkg, StateExtracted)

	root, err := versionedRoot(staging)
	if err != nil {
		return false, fmt.Errorf("%w: %v", provision.ErrToolExtraction, err)
	}
	if info, err := os.Stat(filepath.Join(root, pkg.BinDir)); err != nil || !info.IsDir() {
		return false, fmt.Errorf("%w: archive has no binary directory %q under %s", provision.ErrToolExtraction, pkg.BinDir, filepath.Base(root))
	}
	if err := writeReceipt(root, Receipt{
		Name:        pkg.Name,
		Version:     pkg.Version,
		URL:         pkg.URL,
		Digest:      pkg.Digest,
		InstalledAt: a.now().UTC(),
	}); err != nil {
		return false, fmt.Errorf("%w: write receipt: %v", provision.ErrToolExtraction, err)
	}

	// Another setup may have finished first; keep its install.
	if present, err := pkg.Installed(); err != nil || present {
		log.Warn().Str("path", pkg.InstallPath).Msg("tool installed concurrently, discarding staged copy")
		return false, err
	}
	if err := os.Rename(root, pkg.InstallPath); err != nil {
		return false, fmt.Errorf("%w: move into %s: %v", provision.ErrToolExtraction, pkg.InstallPath, err)
	}
	a.transition(pkg, StateInstalled)

	if err := os.RemoveAll(staging); err != nil {
		log.Warn().Err(err).Str("path", staging).Msg("staging cleanup failed")
	}
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", archivePath).Msg("archive cleanup failed")
	}
	a.transition(pkg, StateStagingCleaned)

	log.Info().
		Str("tool", pkg.Name).
		Str("version", pkg.Version).
		Str("path", pkg.InstallPath).
		Msg("tool installed")
	return true, nil
}

// fetch downloads the archive into a temp file under dir. The returned path
// is non-empty whenever a temp file was created, even on error.
func (a *Acquirer) fetch(ctx context.Context, pkg Package, dir string) (string, error) {
	file, err := os.CreateTemp(dir, "."+pkg.Name+"-*.download")
	if err != nil {
		return "", fmt.Errorf("%w: create temp archive: %v", provision.ErrToolDownload, err)
	}
	n, err := download(ctx, a.client(), pkg.URL, file)
	observability.RecordDownload(pkg.Name, n)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return file.Name(), fmt.Errorf("%w: %w", provision.ErrToolDownload, err)
	}
	return file.Name(), nil
}

func verify(pkg Package, archivePath string) error {
	if pkg.Digest == "" {
		log.Warn().
			Str("tool", pkg.Name).
			Str("url", pkg.URL).
			Msg("no digest pinned, archive integrity not verified")
		return nil
	}
	digest, err := ParseDigest(pkg.Digest)
	if err != nil {
		return fmt.Errorf("%w: %v", provision.ErrToolVerification, err)
	}
	if err := digest.Verify(archivePath); err != nil {
		return fmt.Errorf("%w: %v", provision.ErrToolVerification, err)
	}
	log.Info().Str("tool", pkg.Name).Str("digest", digest.Algorithm).Msg("archive verified")
	return nil
}

// checkReceipt reports a pinned version that differs from the installed one.
// The existing install is left in place.
func (a *Acquirer) checkReceipt(pkg Package) {
	receipt, ok, err := ReadReceipt(pkg.InstallPath)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("path", pkg.InstallPath).Msg("unreadable tool receipt")
	case !ok:
		log.Debug().Str("path", pkg.InstallPath).Msg("tool present without receipt")
	case receipt.Version != pkg.Version:
		log.Warn().
			Str("tool", pkg.Name).
			Str("installed", receipt.Version).
			Str("pinned", pkg.Version).
			Msg("installed tool version differs from pin; remove the install path to replace it")
	default:
		log.Debug().Str("tool", pkg.Name).Str("version", receipt.Version).Msg("tool present")
	}
}

func (a *Acquirer) transition(pkg Package, state State) {
	log.Debug().Str("tool", pkg.Name).Str("state", string(state)).Msg("tool acquisition")
	if a.OnTransition != nil {
		a.OnTransition(pkg, state)
	}
}

func (a *Acquirer) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func (a *Acquirer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
