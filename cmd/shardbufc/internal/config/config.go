// Package config loads the optional `.shardbuf.yaml` project file the way
// MacroPower-x's tools load their own YAML configuration: parsed with
// goccy/go-yaml into a plain struct, then layered underneath whatever the
// CLI flags for the current invocation set explicitly.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Project is `.shardbuf.yaml`'s shape.
type Project struct {
	// Include lists schema search paths read from the `include` key.
	// Nothing consults it when resolving an `include "foo.fbs";`
	// statement.
	Include []string `yaml:"include"`

	// IgnoreDocstringErrors mirrors the CLI's --ignore-docstring-errors
	// flag default, overridable per invocation.
	IgnoreDocstringErrors bool `yaml:"ignore_docstring_errors"`

	// RustOutputDir is the default output directory for `shardbufc rust`.
	RustOutputDir string `yaml:"rust_output_dir"`

	// DotOutputFile is the default output path for `shardbufc dot`.
	DotOutputFile string `yaml:"dot_output_file"`
}

// Default returns the project's built-in defaults, used when no
// `.shardbuf.yaml` is present.
func Default() Project {
	return Project{
		RustOutputDir: "gen/rust",
		DotOutputFile: "schema.dot",
	}
}

// Load reads and parses path, returning Default() unmodified if path does
// not exist: an absent config file is not an error, just "use built-ins."
func Load(path string) (Project, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return Project{}, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, err
	}
	return p, nil
}
