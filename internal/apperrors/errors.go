// Package apperrors defines the error kinds reported by tblprof.
// Callers wrap these with fmt.Errorf("...: %w") and classify with errors.Is.
package apperrors

import "errors"

var (
	// ErrInvalidArguments means a required parameter (usually the table) is
	// missing or malformed. Raised before any query is built.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrToolUnavailable means the query transport (beeline, spark-sql, a
	// database/sql driver) is not present in this environment.
	ErrToolUnavailable = errors.New("query tool unavailable")

	// ErrSchemaUnavailable means the table does not exist or its columns
	// could not be listed.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	// ErrConnectionFailure means the engine could not be reached.
	ErrConnectionFailure = errors.New("connection failure")
)

// Exit codes returned by the CLI for each error kind.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitInvalidArguments  = 2
	ExitToolUnavailable   = 3
	ExitSchemaUnavailable = 4
	ExitConnectionFailure = 5
)

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidArguments):
		return ExitInvalidArguments
	case errors.Is(err, ErrToolUnavailable):
		return ExitToolUnavailable
	case errors.Is(err, ErrSchemaUnavailable):
		return ExitSchemaUnavailable
	case errors.Is(err, ErrConnectionFailure):
		return ExitConnectionFailure
	default:
		return ExitFailure
	}
}
