package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrUnsupported   = errors.New("db: unsupported predicate")
)

// Op names used for error context.
const (
	OpPing        = "PING"
	OpFind        = "FIND"
	OpCount       = "COUNT"
	OpMigrate     = "MIGRATE"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpESSearch    = "_search"
	OpESCount     = "_count"
	OpESExists    = "HEAD index"
	OpESCreate    = "PUT index"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
