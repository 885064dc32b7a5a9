// Package install replaces the resources directory with the contents of
// a downloaded archive.
package install

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Installer extracts gzip tar archives into a target directory.
type Installer struct {
	FS billy.Filesystem
}

// Install replaces targetDir with the extracted contents of the archive
// at archivePath. The archive is extracted into a staging directory next
// to the target and swapped into place with renames, so a failure during
// extraction leaves the previous contents untouched.
func (i *Installer) Install(archivePath, targetDir string) error {
	parent := filepath.Dir(targetDir)
	staging, err := util.TempDir(i.FS, parent, ".webrtc-resources-staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer util.RemoveAll(i.FS, staging)

	if err := i.extract(archivePath, staging); err != nil {
		return fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	return i.swap(staging, targetDir)
}

// swap moves the staging directory into place. The previous target is
// renamed aside first and restored if the final rename fails.
func (i *Installer) swap(staging, targetDir string) error {
	hadTarget := true
	if _, err := i.FS.Stat(targetDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat %s: %w", targetDir, err)
		}
		hadTarget = false
	}

	old := staging + ".old"
	if hadTarget {
		if err := i.FS.Rename(targetDir, old); err != nil {
			return fmt.Errorf("failed to move old resources aside: %w", err)
		}
	}

	if err := i.FS.Rename(staging, targetDir); err != nil {
		if hadTarget {
			// Best effort restore of the previous contents.
			i.FS.Rename(old, targetDir)
		}
		return fmt.Errorf("failed to move new resources into place: %w", err)
	}

	if hadTarget {
		if err := util.RemoveAll(i.FS, old); err != nil {
			return fmt.Errorf("failed to remove old resources: %w", err)
		}
	}
	return nil
}

func (i *Installer) extract(archivePath, dir string) error {
	archive, err := i.FS.Open(archivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	gz, err := gzip.NewReader(archive)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		dest, err := i.entryPath(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := i.FS.MkdirAll(dest, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := i.writeFile(dest, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// Resource archives contain only files and directories;
			// anything else is skipped.
		}
	}
}

// entryPath resolves a tar entry name below dir, rejecting names that
// would escape it.
func (i *Installer) entryPath(dir, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the target directory", name)
	}
	return i.FS.Join(dir, cleaned), nil
}

func (i *Installer) writeFile(dest string, r io.Reader, mode os.FileMode) error {
	if err := i.FS.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	f, err := i.FS.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
