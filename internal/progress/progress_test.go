package progress_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eleven91/webrtc/internal/progress"
)

func TestConsole_MidDownload(t *testing.T) {
	var buf bytes.Buffer
	report := progress.Console(&buf)

	report(10240, 20480)

	got := buf.String()
	want := "Downloaded 10 of 20 kB (50.00%)\r"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConsole_FinalChunkEndsLine(t *testing.T) {
	var buf bytes.Buffer
	report := progress.Console(&buf)

	report(10240, 20480)
	report(20480, 20480)

	got := buf.String()
	if !strings.HasSuffix(got, "(100.00%)\r\n") {
		t.Errorf("expected a trailing newline after completion, got %q", got)
	}
}

func TestConsole_OverwritesWithCarriageReturn(t *testing.T) {
	var buf bytes.Buffer
	report := progress.Console(&buf)

	report(1024, 30720)
	report(2048, 30720)

	if strings.Count(buf.String(), "\r") != 2 {
		t.Errorf("expected one carriage return per report, got %q", buf.String())
	}
	if strings.Contains(strings.TrimSuffix(buf.String(), "\r"), "\n") {
		t.Errorf("expected no newline before completion, got %q", buf.String())
	}
}
