// File: internal/archive/extract.go
// Brief: Unpacks gzip-compressed package tarballs into a directory.

package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// ExtractOptions tunes ExtractTarGz.
type ExtractOptions struct {
	// StripComponents drops that many leading path elements from every entry.
	// Package tarballs nest their files under "package/", so callers usually
	// pass 1.
	StripComponents int
	// MaxBytes caps the total uncompressed size; 0 means unlimited.
	MaxBytes int64
}

// ExtractTarGz unpacks the gzip-compressed tar stream r into dstDir. Only
// regular files and directories are materialized; links and devices are
// skipped.
func ExtractTarGz(r io.Reader, dstDir string, opts ExtractOptions) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "open gzip stream")
	}
	defer gzr.Close()

	root := filepath.Clean(dstDir)
	var total int64
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read tar entry")
		}
		if hdr == nil {
			continue
		}
		name := stripComponents(strings.TrimLeft(strings.TrimSpace(hdr.Name), "/"), opts.StripComponents)
		if name == "" {
			continue
		}
		if slices.Contains(strings.Split(name, "/"), "..") {
			return errors.Errorf("invalid tar entry name %q", hdr.Name)
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if !strings.HasPrefix(filepath.Clean(target), root+string(os.PathSeparator)) && filepath.Clean(target) != root {
			return errors.Errorf("invalid tar entry path %q", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "mkdir %s", target)
			}
			continue
		case tar.TypeReg:
		default:
			continue
		}

		if opts.MaxBytes > 0 {
			total += hdr.Size
			if total > opts.MaxBytes {
				return errors.Errorf("archive exceeds %d bytes", opts.MaxBytes)
			}
		}
		if err := writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
			return err
		}
	}
}

func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir for %s", target)
	}
	if mode == 0 {
		mode = 0o644
	}
	tmp := target + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode|0o200)
	if err != nil {
		return errors.Wrapf(err, "create %s", target)
	}
	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(copyErr, "write %s", target)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(closeErr, "close %s", target)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", target)
	}
	return nil
}

func stripComponents(name string, n int) string {
	if n <= 0 {
		return name
	}
	parts := strings.Split(name, "/")
	if len(parts) <= n {
		return ""
	}
	return strings.Join(parts[n:], "/")
}
