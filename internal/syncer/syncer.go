// Package syncer drives one resources synchronization pass: read the
// desired revision from DEPS, compare it with the installed one and
// download and install the matching archive when they differ.
package syncer

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/eleven91/webrtc/internal/deps"
	"github.com/eleven91/webrtc/internal/fetch"
	"github.com/eleven91/webrtc/internal/install"
	"github.com/eleven91/webrtc/internal/progress"
	"github.com/eleven91/webrtc/internal/version"
)

const (
	// DepsKey is the vars entry in the DEPS file that declares the
	// desired resources revision.
	DepsKey = "webrtc_resources_revision"

	// DefaultBaseURL is the remote root that holds the resource archives.
	DefaultBaseURL = "http://commondatastorage.googleapis.com/webrtc-resources"

	// VersionFilename is the marker file inside the resources directory
	// that records the installed revision.
	VersionFilename = "webrtc-resources-version"

	// SkipEnvVar makes the whole sync a no-op when set to any non-empty
	// value. It is read once at command entry, never here.
	SkipEnvVar = "WEBRTC_SKIP_RESOURCES_DOWNLOAD"

	tempDirPrefix = "webrtc-resources-"
)

// Status reports the outcome of a sync pass.
type Status int

const (
	// StatusUpToDate means the installed revision already matched.
	StatusUpToDate Status = iota
	// StatusSynced means a new archive was downloaded and installed.
	StatusSynced
)

// Syncer holds the inputs of a sync pass.
type Syncer struct {
	FS           billy.Filesystem
	DepsFile     string
	ResourcesDir string
	BaseURL      string
	Force        bool
	Out          io.Writer
	Report       progress.Func
	Client       *http.Client
}

// Run performs one synchronization pass. When the installed revision
// matches the DEPS one and Force is unset, nothing is written; calling
// Run again in that state is free.
func (s *Syncer) Run() (Status, error) {
	out := s.Out
	if out == nil {
		out = io.Discard
	}

	if err := s.FS.MkdirAll(s.ResourcesDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create resources directory: %w", err)
	}

	store := &version.Store{FS: s.FS, Path: s.FS.Join(s.ResourcesDir, VersionFilename)}
	current, err := store.Current()
	if err != nil {
		return 0, err
	}
	if current != 0 {
		fmt.Fprintf(out, "Found downloaded resources: version: %d\n", current)
	}

	desired, err := deps.ReadDesiredVersion(s.FS, s.DepsFile, DepsKey)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "Version in DEPS file: %d\n", desired)

	if desired == current && !s.Force {
		fmt.Fprintf(out, "Already have correct version: %d\n", current)
		return StatusUpToDate, nil
	}

	if err := s.download(out, store, desired); err != nil {
		return 0, err
	}
	return StatusSynced, nil
}

// download runs the fetch, install, record sequence, in that order. The
// temporary download directory is removed on every exit path.
func (s *Syncer) download(out io.Writer, store *version.Store, desired int) error {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	archiveName := fetch.ArchiveName(desired)
	remoteURL, err := fetch.ResolveURL(baseURL, archiveName)
	if err != nil {
		return err
	}

	tempDir, err := util.TempDir(s.FS, "", tempDirPrefix)
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer util.RemoveAll(s.FS, tempDir)

	fmt.Fprintf(out, "Downloading: %s\n", remoteURL)
	fetcher := &fetch.Fetcher{FS: s.FS, Client: s.Client, Report: s.Report}
	archivePath := s.FS.Join(tempDir, archiveName)
	if err := fetcher.Fetch(remoteURL, archivePath); err != nil {
		return err
	}

	fmt.Fprintf(out, "Replacing old resources in %s\n", s.ResourcesDir)
	installer := &install.Installer{FS: s.FS}
	if err := installer.Install(archivePath, s.ResourcesDir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Extracted resource files into %s\n", s.ResourcesDir)

	return store.Write(desired)
}
