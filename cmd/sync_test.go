package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eleven91/webrtc/cmd"
	"github.com/eleven91/webrtc/internal/syncer"
	"github.com/eleven91/webrtc/internal/testutil"
)

func runSync(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"sync"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, revision int) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "DEPS"), []byte(testutil.DepsContent(revision)), 0600); err != nil {
		t.Fatalf("failed to write DEPS: %v", err)
	}
	return dir
}

func TestSync_EnvSkip(t *testing.T) {
	t.Setenv(syncer.SkipEnvVar, "1")
	dir := t.TempDir() // no DEPS file; any read would fail

	out, err := runSync(t, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "Skipping resources download") {
		t.Errorf("expected a skip notice, got %q", out)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "resources")); statErr == nil {
		t.Error("expected no filesystem side effects when skipping")
	}
}

func TestSync_DownloadsAndRecordsVersion(t *testing.T) {
	dir := writeProject(t, 12)
	archive := testutil.BuildArchive(t, map[string]string{"audio/tone.wav": "pcm"})
	server, counter := testutil.ArchiveServer(t, map[string][]byte{
		"webrtc-resources-12.tgz": archive,
	})

	out, err := runSync(t, dir, "--base-url", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput: %s", err, out)
	}

	if counter.Requests != 1 {
		t.Errorf("expected exactly one fetch, got %d", counter.Requests)
	}
	marker, err := os.ReadFile(filepath.Join(dir, "resources", "webrtc-resources-version"))
	if err != nil {
		t.Fatalf("failed to read version marker: %v", err)
	}
	if string(marker) != "12" {
		t.Errorf("expected marker content %q, got %q", "12", marker)
	}
	content, err := os.ReadFile(filepath.Join(dir, "resources", "audio", "tone.wav"))
	if err != nil {
		t.Fatalf("failed to read extracted resource: %v", err)
	}
	if string(content) != "pcm" {
		t.Errorf("expected extracted resource content, got %q", content)
	}
}

func TestSync_UpToDateDoesNotDownload(t *testing.T) {
	dir := writeProject(t, 5)
	server, counter := testutil.ArchiveServer(t, nil)
	if err := os.MkdirAll(filepath.Join(dir, "resources"), 0755); err != nil {
		t.Fatalf("failed to create resources dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "resources", "webrtc-resources-version"), []byte("5"), 0600); err != nil {
		t.Fatalf("failed to write marker: %v", err)
	}

	out, err := runSync(t, dir, "--base-url", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counter.Requests != 0 {
		t.Errorf("expected no network requests, got %d", counter.Requests)
	}
	if !strings.Contains(out, "Already have correct version: 5") {
		t.Errorf("expected an up-to-date message, got %q", out)
	}
}

func TestSync_ForceFlag(t *testing.T) {
	dir := writeProject(t, 5)
	archive := testutil.BuildArchive(t, map[string]string{"a.txt": "a"})
	server, counter := testutil.ArchiveServer(t, map[string][]byte{
		"webrtc-resources-5.tgz": archive,
	})
	if err := os.MkdirAll(filepath.Join(dir, "resources"), 0755); err != nil {
		t.Fatalf("failed to create resources dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "resources", "webrtc-resources-version"), []byte("5"), 0600); err != nil {
		t.Fatalf("failed to write marker: %v", err)
	}

	if _, err := runSync(t, dir, "--base-url", server.URL, "--force"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counter.Requests != 1 {
		t.Errorf("expected a forced fetch, got %d requests", counter.Requests)
	}
}

func TestSync_ConfigFileBaseURL(t *testing.T) {
	dir := writeProject(t, 9)
	archive := testutil.BuildArchive(t, map[string]string{"a.txt": "a"})
	server, counter := testutil.ArchiveServer(t, map[string][]byte{
		"webrtc-resources-9.tgz": archive,
	})
	configContent := "base_url = \"" + server.URL + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".ressync.hcl"), []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := runSync(t, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counter.Requests != 1 {
		t.Errorf("expected the config base URL to be used, got %d requests", counter.Requests)
	}
}

func TestSync_FlagOverridesConfigBaseURL(t *testing.T) {
	dir := writeProject(t, 9)
	archive := testutil.BuildArchive(t, map[string]string{"a.txt": "a"})
	flagServer, flagCounter := testutil.ArchiveServer(t, map[string][]byte{
		"webrtc-resources-9.tgz": archive,
	})
	configServer, configCounter := testutil.ArchiveServer(t, nil)
	configContent := "base_url = \"" + configServer.URL + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".ressync.hcl"), []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := runSync(t, dir, "--base-url", flagServer.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flagCounter.Requests != 1 {
		t.Errorf("expected the flag base URL to be used, got %d requests", flagCounter.Requests)
	}
	if configCounter.Requests != 0 {
		t.Errorf("expected the config base URL to be ignored, got %d requests", configCounter.Requests)
	}
}

func TestSync_BadConfigFile(t *testing.T) {
	dir := writeProject(t, 9)
	if err := os.WriteFile(filepath.Join(dir, ".ressync.hcl"), []byte(`mirror = "x"`), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := runSync(t, dir); err == nil {
		t.Fatal("expected an error for an unknown config attribute")
	}
}
