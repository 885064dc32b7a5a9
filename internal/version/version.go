// Package version records which resources revision is installed locally.
package version

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Store reads and writes the plain-text version marker file.
type Store struct {
	FS   billy.Filesystem
	Path string
}

// Current returns the recorded version, or 0 when no marker file exists.
// A marker that exists but does not parse as an integer is an error.
func (s *Store) Current() (int, error) {
	data, err := util.ReadFile(s.FS, s.Path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read version marker %s: %w", s.Path, err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("version marker %s does not contain an integer: %w", s.Path, err)
	}
	return v, nil
}

// Write overwrites the marker with the decimal string of version. It
// must only be called after the matching content is fully installed.
func (s *Store) Write(version int) error {
	if err := util.WriteFile(s.FS, s.Path, []byte(strconv.Itoa(version)), 0644); err != nil {
		return fmt.Errorf("failed to write version marker %s: %w", s.Path, err)
	}
	return nil
}
