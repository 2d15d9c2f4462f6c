package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrCredentialNotFound indicates the password row paired with a user does not exist.
	ErrCredentialNotFound = errors.New("repository: credential not found")
)
