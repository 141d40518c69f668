package toolpkg

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// extract unpacks the archive at path into dest according to format.
func extract(ctx context.Context, path string, format Format, dest string) error {
	switch format {
	case FormatZip:
		return extractZip(ctx, path, dest)
	case FormatTarGz, FormatTarZst:
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		var r io.Reader
		if format == FormatTarGz {
			gz, err := gzip.NewReader(file)
			if err != nil {
				return err
			}
			defer gz.Close()
			r = gz
		} else {
			zr, err := zstd.NewReader(file)
			if err != nil {
				return err
			}
			defer zr.Close()
			r = zr
		}
		return extractTar(ctx, r, dest)
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}
}

func extractZip(ctx context.Context, path string, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode&os.ModeSymlink != 0:
			return fmt.Errorf("zip entry %q: symlinks are not supported", f.Name)
		default:
			rc, err := f.Open()
			if err != nil {
				return err
			}
			err = writeFile(target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func extractTar(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("tar entry %q: absolute symlink target %q", hdr.Name, hdr.Linkname)
			}
			resolved := filepath.Join(filepath.Dir(filepath.FromSlash(hdr.Name)), filepath.FromSlash(hdr.Linkname))
			if _, err := safeJoin(dest, filepath.ToSlash(resolved)); err != nil {
				return fmt.Errorf("tar entry %q: %w", hdr.Name, err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			// hard links, devices and fifos have no place in a tool release
			return fmt.Errorf("tar entry %q: unsupported type %q", hdr.Name, hdr.Typeflag)
		}
	}
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin resolves an archive entry name under dest, rejecting entries that
// would escape it.
func safeJoin(dest string, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("archive entry %q: absolute path", name)
	}
	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction root", name)
	}
	return target, nil
}

// versionedRoot returns the single top-level directory an archive produced.
func versionedRoot(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return "", fmt.Errorf("expected one versioned directory at archive root, found %v", names)
	}
	return filepath.Join(staging, entries[0].Name()), nil
}
