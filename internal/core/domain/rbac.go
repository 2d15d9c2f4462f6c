package domain

// RequestRight is an entry of the request-rights catalog.
type RequestRight struct {
	ID   int
	Name string
}

// ITRole is an entry of the IT roles catalog.
type ITRole struct {
	ID   int
	Name string
}

// UserRequestRight grants a request right to a user.
type UserRequestRight struct {
	UserID  string
	RightID int
}

// UserITRole grants an IT role to a user.
type UserITRole struct {
	UserID string
	RoleID int
}

// Permission is a catalog entry as presented to the host: ID holds the
// composite token produced by EncodePermission.
type Permission struct {
	ID          string
	Name        string
	Description string
}
