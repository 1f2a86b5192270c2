package db

import (
	"errors"
	"fmt"
)

var ErrUnsupportedURL = errors.New("unsupported database url")

// ConnectionError is returned when the driver cannot be resolved or refuses
// to open a connection.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Driver == "" {
		return fmt.Sprintf("establish database connection: %v", e.Err)
	}
	return fmt.Sprintf("establish %s connection: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError carries the statement text that failed.
type QueryError struct {
	Op    string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("execute %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ReleaseError reports a failed close of a connection, result set or
// statement. Release helpers log it and hand it back; callers may ignore it.
type ReleaseError struct {
	Resource string
	Err      error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("close %s: %v", e.Resource, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}
