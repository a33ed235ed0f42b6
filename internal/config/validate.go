package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrNoSourceSuffixes indicates no suffix would ever identify a source file
	ErrNoSourceSuffixes = errors.New("no source suffixes")

	// ErrEmptySuffix indicates a blank entry in source_suffixes
	ErrEmptySuffix = errors.New("empty source suffix")

	// ErrInvalidPattern indicates a disallowed pattern that does not compile
	ErrInvalidPattern = errors.New("invalid disallowed pattern")

	// ErrEmptyArgument indicates a blank entry in disallowed_args
	ErrEmptyArgument = errors.New("empty disallowed argument")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid workers")

	// ErrEmptyPath indicates a blank input path
	ErrEmptyPath = errors.New("empty input path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Input.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: input.path is required (use %q for stdin)", ErrEmptyPath, StdStream))
	}

	if err := validateConvert(&cfg.Convert); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateConvert(cfg *ConvertConfig) error {
	var errs []error

	if len(cfg.SourceSuffixes) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one source suffix required", ErrNoSourceSuffixes))
	}

	// An empty suffix would match every argument
	for i, suffix := range cfg.SourceSuffixes {
		if suffix == "" {
			errs = append(errs, fmt.Errorf("%w: source_suffixes[%d] is empty", ErrEmptySuffix, i))
		}
	}

	for i, arg := range cfg.DisallowedArgs {
		if arg == "" {
			errs = append(errs, fmt.Errorf("%w: disallowed_args[%d] is empty", ErrEmptyArgument, i))
		}
	}

	for _, pattern := range cfg.DisallowedPatterns {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
