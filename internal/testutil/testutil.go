package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// WriteFile writes a file with the given content to the filesystem,
// creating parent directories as needed.
func WriteFile(t *testing.T, fs billy.Filesystem, filePath, content string) {
	t.Helper()
	if err := util.WriteFile(fs, filePath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

// ReadFile reads a file from the filesystem and returns its content.
func ReadFile(t *testing.T, fs billy.Filesystem, filePath string) string {
	t.Helper()
	data, err := util.ReadFile(fs, filePath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filePath, err)
	}
	return string(data)
}

// DepsContent returns a realistic DEPS file declaring the given
// resources revision.
func DepsContent(revision int) string {
	return fmt.Sprintf(`# Test dependency manifest.
vars = {
  'chromium_git': 'https://chromium.googlesource.com',
  'webrtc_resources_revision': '%d',
}

deps = {
  'src/build': Var('chromium_git') + '/chromium/src/build.git',
  'src/testing': From('chromium_deps', 'src/testing'),
  'src/tools/clang/OWNERS': File(Var('chromium_git') + '/OWNERS'),
}
`, revision)
}

// WriteDepsFile writes a DEPS file declaring the given resources
// revision.
func WriteDepsFile(t *testing.T, fs billy.Filesystem, filePath string, revision int) {
	t.Helper()
	WriteFile(t, fs, filePath, DepsContent(revision))
}

// BuildArchive builds an in-memory gzip tar archive from a map of file
// names to contents.
func BuildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write tar entry: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// ArchiveServer starts an HTTP server serving the given archives by
// filename, counting requests in the returned counter. The server is
// shut down when the test ends.
func ArchiveServer(t *testing.T, archives map[string][]byte) (*httptest.Server, *RequestCounter) {
	t.Helper()

	counter := &RequestCounter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Requests++
		body, ok := archives[path.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server, counter
}

// RequestCounter records how many requests an ArchiveServer handled.
type RequestCounter struct {
	Requests int
}
