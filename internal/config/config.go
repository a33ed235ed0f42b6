package config

import (
	"fmt"
	"path/filepath"

	"github.com/mvp-joe/compdb/internal/compdb"
)

// StdStream selects stdin for input or stdout for output.
const StdStream = "-"

// Config represents the complete compdb configuration.
// It can be loaded from .compdb.yaml with environment variable overrides.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Convert ConvertConfig `yaml:"convert" mapstructure:"convert"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// InputConfig selects where aquery output is read from.
type InputConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // file path, "-" for stdin
}

// ConvertConfig controls how build actions become compile commands.
type ConvertConfig struct {
	DisallowedArgs     []string `yaml:"disallowed_args" mapstructure:"disallowed_args"`         // exact arguments to drop
	DisallowedPatterns []string `yaml:"disallowed_patterns" mapstructure:"disallowed_patterns"` // glob patterns of arguments to drop
	SourceSuffixes     []string `yaml:"source_suffixes" mapstructure:"source_suffixes"`         // suffixes marking the compiled file
	Workers            int      `yaml:"workers" mapstructure:"workers"`                         // parallel extraction, 0 = sequential
}

// OutputConfig controls where the compilation database goes.
type OutputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`           // empty means <directory>/compile_commands.json, "-" for stdout
	Directory string `yaml:"directory" mapstructure:"directory"` // working directory recorded in every entry, empty means the project root
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path: StdStream,
		},
		Convert: ConvertConfig{
			DisallowedArgs:     append([]string(nil), compdb.DefaultDisallowedArgs...),
			DisallowedPatterns: []string{},
			SourceSuffixes:     append([]string(nil), compdb.DefaultSourceSuffixes...),
			Workers:            0,
		},
		Output: OutputConfig{
			Path:      "",
			Directory: "",
		},
	}
}

// ToExtractorOptions converts the convert section into extractor options.
func (c *Config) ToExtractorOptions() compdb.Options {
	return compdb.Options{
		DisallowedArgs:     c.Convert.DisallowedArgs,
		DisallowedPatterns: c.Convert.DisallowedPatterns,
		SourceSuffixes:     c.Convert.SourceSuffixes,
		Workers:            c.Convert.Workers,
	}
}

// ResolveOutput returns the absolute working directory to record and the
// destination path. Relative directories are taken from rootDir.
func (c *Config) ResolveOutput(rootDir string) (directory string, path string, err error) {
	directory = c.Output.Directory
	if directory == "" {
		directory = rootDir
	} else if !filepath.IsAbs(directory) {
		directory = filepath.Join(rootDir, directory)
	}

	directory, err = filepath.Abs(directory)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve output directory: %w", err)
	}

	path = c.Output.Path
	switch {
	case path == StdStream:
	case path == "":
		path = filepath.Join(directory, compdb.DefaultFileName)
	case !filepath.IsAbs(path):
		path = filepath.Join(rootDir, path)
	}

	return directory, path, nil
}
