package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/rs/zerolog/log"
)

type ResetAction string

const (
	ResetDeleted   ResetAction = "deleted"
	ResetRecreated ResetAction = "recreated"
	ResetCreated   ResetAction = "created"
	ResetClean     ResetAction = "clean"
	ResetFailed    ResetAction = "failed"
)

type ResetReport struct {
	Name   string
	Path   string
	Action ResetAction
	Err    error
}

// Reset wipes the application's state targets. Files are removed,
// directories are emptied and recreated, and a missing target without an
// extension is created as an empty directory. Every target is attempted;
// failures are joined into the returned error.
func (s *Scaffolder) Reset(targets []config.ResetTarget) ([]ResetReport, error) {
	reports := make([]ResetReport, 0, len(targets))
	var errs []error
	for _, t := range targets {
		rep := s.resetOne(t)
		if rep.Err != nil {
			errs = append(errs, fmt.Errorf("%s (%s): %w", rep.Name, rep.Path, rep.Err))
			log.Error().Err(rep.Err).Str("target", rep.Name).Msg("reset failed")
		} else {
			log.Info().Str("target", rep.Name).Str("action", string(rep.Action)).Msg("reset")
		}
		reports = append(reports, rep)
	}
	return reports, errors.Join(errs...)
}

func (s *Scaffolder) resetOne(t config.ResetTarget) ResetReport {
	path := filepath.Join(s.root, t.Path)
	rep := ResetReport{Name: t.Name, Path: path}
	if rep.Name == "" {
		rep.Name = t.Path
	}
	if rel, err := filepath.Rel(s.root, path); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		rep.Action, rep.Err = ResetFailed, fmt.Errorf("target outside workspace")
		return rep
	}

	info, err := os.Lstat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if filepath.Ext(path) != "" {
			rep.Action = ResetClean
			return rep
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			rep.Action, rep.Err = ResetFailed, err
			return rep
		}
		rep.Action = ResetCreated
	case err != nil:
		rep.Action, rep.Err = ResetFailed, err
	case info.IsDir():
		if err := os.RemoveAll(path); err != nil {
			rep.Action, rep.Err = ResetFailed, err
			return rep
		}
		if err := os.Mkdir(path, 0o755); err != nil {
			rep.Action, rep.Err = ResetFailed, err
			return rep
		}
		rep.Action = ResetRecreated
	default:
		if err := os.Remove(path); err != nil {
			rep.Action, rep.Err = ResetFailed, err
			return rep
		}
		rep.Action = ResetDeleted
	}
	return rep
}
