package pyenv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// stampFile records the digest of the last fully installed dependency set.
const stampFile = ".mergectl-deps"

// Install upgrades pip and installs every dependency selected for the
// environment's platform, in order. The first failure aborts; nothing is
// rolled back. An unchanged set since the last successful install is skipped
// without invoking pip.
func (e *Environment) Install(ctx context.Context, deps []config.Dependency) (bool, error) {
	act, err := e.Activate()
	if err != nil {
		return false, fmt.Errorf("%w: %w", provision.ErrDependencyInstall, err)
	}
	selected := config.SelectDependencies(deps, e.goos)
	current, err := e.stampMatches(selected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", provision.ErrDependencyInstall, err)
	}
	if current {
		log.Debug().Int("packages", len(selected)).Msg("dependency set unchanged")
		return false, nil
	}

	if err := e.run(ctx, act.Python, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return false, fmt.Errorf("%w: upgrade pip: %w", provision.ErrDependencyInstall, err)
	}
	for _, dep := range selected {
		if err := e.run(ctx, act.Python, "-m", "pip", "install", dep.Spec); err != nil {
			return false, fmt.Errorf("%w: package=%q: %w", provision.ErrDependencyInstall, dep.Spec, err)
		}
	}

	if err := os.WriteFile(e.stampPath(), []byte(DependencyDigest(selected)+"\n"), 0o644); err != nil {
		return false, fmt.Errorf("%w: write stamp: %v", provision.ErrDependencyInstall, err)
	}
	log.Info().Int("packages", len(selected)).Str("goos", e.goos).Msg("dependencies installed")
	return true, nil
}

// DependenciesCurrent reports whether the installed set matches deps.
func (e *Environment) DependenciesCurrent(deps []config.Dependency) (bool, error) {
	return e.stampMatches(config.SelectDependencies(deps, e.goos))
}

// DependencyDigest is the BLAKE3 digest of the ordered specifiers.
func DependencyDigest(selected []config.Dependency) string {
	h := blake3.New()
	for _, dep := range selected {
		h.Write([]byte(dep.Spec))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Environment) stampPath() string {
	return filepath.Join(e.dir, stampFile)
}

func (e *Environment) stampMatches(selected []config.Dependency) (bool, error) {
	data, err := os.ReadFile(e.stampPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(data)) == DependencyDigest(selected), nil
}
