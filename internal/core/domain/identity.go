package domain

// User mirrors the persisted representation in the sandbox User table.
type User struct {
	Login           string
	LastName        string
	FirstName       string
	MiddleName      string
	TelephoneNumber string
	IsLead          bool
}

// Credential holds the pre-hashed password paired 1:1 with a user.
// The connector stores the value as supplied and never hashes it.
type Credential struct {
	ID       int64
	UserID   string
	Password string
}

// Property describes an attribute the host may read or write.
type Property struct {
	Name        string
	Description string
}

// UserProperty is a single entry of the host's attribute bag.
type UserProperty struct {
	Name  string
	Value string
}

// UserToCreate is the provisioning payload supplied by the host.
type UserToCreate struct {
	Login        string
	HashPassword string
	Properties   []UserProperty
}
