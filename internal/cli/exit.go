package cli

import (
	"errors"

	"github.com/mvp-joe/compdb/internal/aquery"
	"github.com/mvp-joe/compdb/internal/compdb"
)

// Process exit codes, one per failing pipeline stage.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitReadError   = 2
	ExitSchemaError = 3
	ExitWriteError  = 4
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, aquery.ErrRead):
		return ExitReadError
	case errors.Is(err, aquery.ErrSchema):
		return ExitSchemaError
	case errors.Is(err, compdb.ErrWrite):
		return ExitWriteError
	default:
		return ExitFailure
	}
}
