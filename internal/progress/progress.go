// Package progress reports download progress.
package progress

import (
	"fmt"
	"io"
)

// Func observes a download in flight. It is invoked after every chunk
// with the number of bytes received so far and the expected total.
type Func func(bytesSoFar, totalSize int64)

// Console returns a Func that renders a single progress line, rewritten
// in place with a carriage return after each chunk. A trailing newline
// is emitted once the download completes.
func Console(w io.Writer) Func {
	return func(bytesSoFar, totalSize int64) {
		percent := float64(bytesSoFar) / float64(totalSize) * 100
		fmt.Fprintf(w, "Downloaded %d of %d kB (%0.2f%%)\r",
			bytesSoFar/1024, totalSize/1024, percent)
		if bytesSoFar >= totalSize {
			fmt.Fprintln(w)
		}
	}
}
