package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/mergectl/internal/provision"
	"github.com/rs/zerolog/log"
)

// Scaffolder creates the working directories the application expects.
type Scaffolder struct {
	root string
}

func NewScaffolder(root string) (*Scaffolder, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Scaffolder{root: abs}, nil
}

func (s *Scaffolder) Root() string { return s.root }

// EnsureDirectories creates each named directory under the workspace root.
// Existing directories are accepted regardless of contents. It returns the
// names that were created.
func (s *Scaffolder) EnsureDirectories(names []string) ([]string, error) {
	created := make([]string, 0, len(names))
	for _, name := range names {
		ok, err := s.ensure(name)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, name)
		}
	}
	return created, nil
}

func (s *Scaffolder) ensure(name string) (bool, error) {
	path := filepath.Join(s.root, name)
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%w: %s exists and is not a directory", provision.ErrDirectoryCreation, path)
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("%w: %v", provision.ErrDirectoryCreation, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("%w: %v", provision.ErrDirectoryCreation, err)
	}
	log.Info().Str("dir", path).Msg("workspace directory created")
	return true, nil
}

func (s *Scaffolder) exists(name string) (bool, error) {
	info, err := os.Stat(filepath.Join(s.root, name))
	if err == nil {
		return info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DirectoryResource is one workspace directory in the provisioning plan.
type DirectoryResource struct {
	Scaffolder *Scaffolder
	Name       string
}

func (r DirectoryResource) Metadata() provision.ResourceMetadata {
	return provision.ResourceMetadata{
		ID:          "workspace." + resourceSlug(r.Name),
		Kind:        provision.KindDirectory,
		Description: "workspace directory " + r.Name,
	}
}

func (r DirectoryResource) Check(context.Context) (provision.State, error) {
	ok, err := r.Scaffolder.exists(r.Name)
	if err != nil || !ok {
		return provision.StateAbsent, err
	}
	return provision.StatePresent, nil
}

func (r DirectoryResource) Ensure(context.Context) (provision.Outcome, error) {
	created, err := r.Scaffolder.ensure(r.Name)
	if created {
		return provision.OutcomeApplied, err
	}
	return provision.OutcomeSkipped, err
}

// resourceSlug lowercases name and maps path separators and other
// characters outside the resource id alphabet to '-'.
func resourceSlug(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '.':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
