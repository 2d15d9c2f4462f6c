package domain

import "errors"

var (
	// ErrInvalidArgument indicates malformed or missing input detected before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedProvider indicates the connection string names a backend the connector cannot open.
	ErrUnsupportedProvider = errors.New("unsupported database provider")
	// ErrUserNotFound indicates no user row matches the requested login.
	ErrUserNotFound = errors.New("user not found")
	// ErrCredentialNotFound indicates no password row matches the requested login.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrMalformedIdentifier indicates a permission token could not be decoded.
	ErrMalformedIdentifier = errors.New("malformed permission identifier")
	// ErrUnknownAttribute indicates an attribute name that maps to no writable field.
	ErrUnknownAttribute = errors.Join(ErrInvalidArgument, errors.New("unknown attribute"))
	// ErrNotStarted indicates an operation was invoked before StartUp succeeded.
	ErrNotStarted = errors.New("connector not started")
)
