// Package config loads the optional tool configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Filename is the configuration file looked up in the project root.
const Filename = ".ressync.hcl"

// Config holds settings read from a .ressync.hcl file. Zero values mean
// the built-in defaults apply; command-line flags take precedence over
// everything here.
type Config struct {
	BaseURL      string
	ResourcesDir string
	DepsFile     string
}

// Load reads the configuration file at path. A missing file is not an
// error and yields an empty configuration.
func Load(fs billy.Filesystem, path string) (*Config, error) {
	src, err := util.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config: %s", diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.New("unexpected body type")
	}
	if len(body.Blocks) > 0 {
		block := body.Blocks[0]
		return nil, fmt.Errorf("config file does not support blocks, found %q", block.Type)
	}

	config := &Config{}
	for name, attr := range body.Attributes {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate attribute %s: %s", name, diags.Error())
		}
		if value.Type() != cty.String {
			return nil, fmt.Errorf("attribute %s must be a string", name)
		}

		switch name {
		case "base_url":
			config.BaseURL = value.AsString()
		case "resources_dir":
			config.ResourcesDir = value.AsString()
		case "deps_file":
			config.DepsFile = value.AsString()
		default:
			return nil, fmt.Errorf("unknown attribute %q in %s", name, path)
		}
	}

	return config, nil
}
