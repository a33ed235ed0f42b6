package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the project root (extension resolved by viper).
const FileName = ".compdb"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	v          *viper.Viper
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir, v: viper.New()}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of searching the root directory. The file must exist.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile, v: viper.New()}
}

// NewViperLoader loads through an existing viper instance, so that flags
// bound to it by the CLI take precedence over file and environment values.
func NewViperLoader(v *viper.Viper, rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile, v: v}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Flags bound to the viper instance
// 2. Environment variables (COMPDB_*)
// 3. Config file (.compdb.yaml / .compdb.yml or an explicit file)
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := l.v

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("COMPDB")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., COMPDB_OUTPUT_PATH)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"input.path",
		"convert.disallowed_args",
		"convert.disallowed_patterns",
		"convert.source_suffixes",
		"convert.workers",
		"output.path",
		"output.directory",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Config file not found is acceptable only when searching
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("input.path", defaults.Input.Path)

	v.SetDefault("convert.disallowed_args", defaults.Convert.DisallowedArgs)
	v.SetDefault("convert.disallowed_patterns", defaults.Convert.DisallowedPatterns)
	v.SetDefault("convert.source_suffixes", defaults.Convert.SourceSuffixes)
	v.SetDefault("convert.workers", defaults.Convert.Workers)

	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.directory", defaults.Output.Directory)
}
