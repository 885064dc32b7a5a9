package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/eleven91/webrtc/internal/config"
	"github.com/eleven91/webrtc/internal/progress"
	"github.com/eleven91/webrtc/internal/syncer"
)

const (
	defaultResourcesDir = "resources"
	defaultDepsFile     = "DEPS"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [project-root]",
		Short: "Download the resource archive matching the DEPS revision",
		Long: `Sync compares the resources revision declared in the project's DEPS file
with the one recorded in the local resources directory and, when they
differ, downloads the matching archive and replaces the directory
contents with it.

Example:
  ressync sync . --base-url http://mirror.example.com/webrtc-resources`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSync,
	}

	cmd.Flags().BoolP(
		"force", "f", false,
		"force download and replacement of existing resources")
	cmd.Flags().StringP(
		"base-url", "b", "",
		fmt.Sprintf("override the default base URL (%s)", syncer.DefaultBaseURL))
	cmd.Flags().String(
		"config", "",
		fmt.Sprintf("tool configuration file (default <project-root>/%s)", config.Filename))

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	// The skip switch short-circuits everything, before any reads.
	if os.Getenv(syncer.SkipEnvVar) != "" {
		cmd.Printf("Skipping resources download since %s is set\n", syncer.SkipEnvVar)
		return nil
	}

	absRoot, err := resolveRootPath(args)
	if err != nil {
		return err
	}

	fs := osfs.New("/")

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = filepath.Join(absRoot, config.Filename)
	}
	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}

	resourcesDir := cfg.ResourcesDir
	if resourcesDir == "" {
		resourcesDir = defaultResourcesDir
	}
	depsFile := cfg.DepsFile
	if depsFile == "" {
		depsFile = defaultDepsFile
	}

	s := &syncer.Syncer{
		FS:           fs,
		DepsFile:     resolveProjectPath(absRoot, depsFile),
		ResourcesDir: resolveProjectPath(absRoot, resourcesDir),
		BaseURL:      baseURL,
		Force:        force,
		Out:          cmd.OutOrStdout(),
		Report:       progress.Console(cmd.OutOrStdout()),
	}

	_, err = s.Run()
	return err
}

func resolveRootPath(args []string) (string, error) {
	rootPath := "."
	if len(args) > 0 {
		rootPath = args[0]
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path: %w", err)
	}
	return absRoot, nil
}

func resolveProjectPath(absRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(absRoot, path)
}
