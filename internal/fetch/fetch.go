// Package fetch downloads versioned resource archives over HTTP.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/eleven91/webrtc/internal/progress"
)

const (
	// chunkSize is how much is read between progress updates.
	chunkSize = 10 * 1024

	filenamePrefix = "webrtc-resources-"
	extension      = ".tgz"
)

// ArchiveName returns the remote archive filename for a resources version.
func ArchiveName(version int) string {
	return filenamePrefix + strconv.Itoa(version) + extension
}

// ResolveURL joins an archive name against a base URL. The base gets a
// trailing slash injected when it lacks one, so its last path segment is
// kept instead of being replaced during resolution.
func ResolveURL(baseURL, name string) (string, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("invalid archive name %q: %w", name, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Fetcher streams remote archives to a local filesystem.
type Fetcher struct {
	FS     billy.Filesystem
	Client *http.Client
	Report progress.Func
}

// Fetch downloads remoteURL into destPath. The response must carry a
// Content-Length header; without it no progress can be computed and the
// transfer is treated as failed before any bytes are written.
func (f *Fetcher) Fetch(remoteURL, destPath string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(remoteURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad http response for %s: %s", remoteURL, resp.Status)
	}

	totalSize, err := contentLength(resp)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remoteURL, err)
	}

	out, err := f.FS.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if err := f.readChunks(out, resp.Body, totalSize); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", remoteURL, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

func contentLength(resp *http.Response) (int64, error) {
	header := resp.Header.Get("Content-Length")
	if header == "" {
		return 0, errors.New("response has no Content-Length header")
	}
	size, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Length header %q: %w", header, err)
	}
	return size, nil
}

// readChunks copies the response body in fixed-size chunks, reporting
// progress after each one.
func (f *Fetcher) readChunks(w io.Writer, r io.Reader, totalSize int64) error {
	buf := make([]byte, chunkSize)
	var bytesSoFar int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			bytesSoFar += int64(n)
			if f.Report != nil {
				f.Report(bytesSoFar, totalSize)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
