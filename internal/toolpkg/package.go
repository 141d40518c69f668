package toolpkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/pelletier/go-toml/v2"
)

type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// Package identifies one pinned external tool release and where it lives.
type Package struct {
	Name        string
	Version     string
	URL         string
	Format      Format
	InstallPath string
	BinDir      string
	Digest      string
}

// FromConfig resolves the tool section of cfg against its workspace root.
func FromConfig(cfg config.Config) (Package, error) {
	install, err := filepath.Abs(cfg.Path(cfg.Tool.InstallPath))
	if err != nil {
		return Package{}, err
	}
	return Package{
		Name:        cfg.Tool.Name,
		Version:     cfg.Tool.Version,
		URL:         cfg.Tool.URL,
		Format:      Format(cfg.Tool.Format),
		InstallPath: install,
		BinDir:      cfg.Tool.BinDir,
		Digest:      cfg.Tool.Digest,
	}, nil
}

// BinPath is the binary subdirectory of the canonical install.
func (p Package) BinPath() string {
	return filepath.Join(p.InstallPath, p.BinDir)
}

// Installed reports whether the canonical install path exists.
func (p Package) Installed() (bool, error) {
	_, err := os.Stat(p.InstallPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// State is a position in the acquisition sequence.
type State string

const (
	StateAbsent         State = "absent"
	StateDownloading    State = "downloading"
	StateExtracted      State = "extracted-to-staging"
	StateInstalled      State = "installed"
	StateStagingCleaned State = "staging-cleaned"
)

// ReceiptFile is written inside the install before it is moved into place.
const ReceiptFile = ".mergectl-tool.toml"

type Receipt struct {
	Name        string    `toml:"name"`
	Version     string    `toml:"version"`
	URL         string    `toml:"url"`
	Digest      string    `toml:"digest,omitempty"`
	InstalledAt time.Time `toml:"installed_at"`
}

func writeReceipt(dir string, r Receipt) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ReceiptFile), data, 0o644)
}

// ReadReceipt loads the receipt of an install. ok is false for installs
// made without one.
func ReadReceipt(dir string) (Receipt, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReceiptFile))
	if errors.Is(err, os.ErrNotExist) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, err
	}
	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return Receipt{}, false, fmt.Errorf("parse receipt %s: %w", dir, err)
	}
	return r, true, nil
}
