package domain

import (
	"fmt"
	"strings"
)

// Attribute names exposed to the host.
const (
	AttrLogin           = "Login"
	AttrLastName        = "LastName"
	AttrFirstName       = "FirstName"
	AttrMiddleName      = "MiddleName"
	AttrTelephoneNumber = "TelephoneNumber"
	AttrIsLead          = "IsLead"
	AttrCredentialID    = "Id"
	AttrCredentialUser  = "UserId"
	AttrPassword        = "Password"
)

// userField binds an attribute name to a User column. Excluded fields are
// key or flag columns hidden from attribute discovery; a nil set marks the
// field read-only.
type userField struct {
	name     string
	excluded bool
	get      func(u *User) string
	set      func(u *User, value string) error
}

type credentialField struct {
	name     string
	excluded bool
	get      func(c *Credential) string
	set      func(c *Credential, value string)
}

var userFields = []userField{
	{
		name:     AttrLogin,
		excluded: true,
		get:      func(u *User) string { return u.Login },
	},
	{
		name: AttrLastName,
		get:  func(u *User) string { return u.LastName },
		set:  func(u *User, v string) error { u.LastName = v; return nil },
	},
	{
		name: AttrFirstName,
		get:  func(u *User) string { return u.FirstName },
		set:  func(u *User, v string) error { u.FirstName = v; return nil },
	},
	{
		name: AttrMiddleName,
		get:  func(u *User) string { return u.MiddleName },
		set:  func(u *User, v string) error { u.MiddleName = v; return nil },
	},
	{
		name: AttrTelephoneNumber,
		get:  func(u *User) string { return u.TelephoneNumber },
		set:  func(u *User, v string) error { u.TelephoneNumber = v; return nil },
	},
	{
		name:     AttrIsLead,
		excluded: true,
		get: func(u *User) string {
			if u.IsLead {
				return "true"
			}
			return "false"
		},
		set: func(u *User, v string) error {
			lead, err := ParseIsLead(v)
			if err != nil {
				return err
			}
			u.IsLead = lead
			return nil
		},
	},
}

var credentialFields = []credentialField{
	{name: AttrCredentialID, excluded: true},
	{name: AttrCredentialUser, excluded: true},
	{
		name: AttrPassword,
		get:  func(c *Credential) string { return c.Password },
		set:  func(c *Credential, v string) { c.Password = v },
	},
}

// ListAttributeNames returns the discoverable attributes of User followed by
// those of Credential, skipping key and flag columns.
func ListAttributeNames() []Property {
	properties := make([]Property, 0, len(userFields)+len(credentialFields))
	for _, f := range userFields {
		if f.excluded {
			continue
		}
		properties = append(properties, Property{Name: f.name})
	}
	for _, f := range credentialFields {
		if f.excluded {
			continue
		}
		properties = append(properties, Property{Name: f.name})
	}
	return properties
}

// ReadAttributes flattens a user and its credential into the attribute bag.
func ReadAttributes(user *User, credential *Credential) []UserProperty {
	properties := make([]UserProperty, 0, len(userFields)+len(credentialFields))
	for _, f := range userFields {
		if f.excluded {
			continue
		}
		properties = append(properties, UserProperty{Name: f.name, Value: f.get(user)})
	}
	for _, f := range credentialFields {
		if f.excluded {
			continue
		}
		properties = append(properties, UserProperty{Name: f.name, Value: f.get(credential)})
	}
	return properties
}

// ApplyAttributes writes the attribute bag onto user and credential.
// "password" (any case) targets the credential; every other name must match a
// writable User field exactly.
func ApplyAttributes(user *User, credential *Credential, properties []UserProperty) error {
	for _, property := range properties {
		if strings.EqualFold(property.Name, AttrPassword) {
			credential.Password = property.Value
			continue
		}

		field, ok := lookupUserField(property.Name)
		if !ok || field.set == nil {
			return fmt.Errorf("%w: %q", ErrUnknownAttribute, property.Name)
		}
		if err := field.set(user, property.Value); err != nil {
			return fmt.Errorf("set %s: %w", property.Name, err)
		}
	}
	return nil
}

// NewUser builds a user from the provisioning attribute bag. Missing string
// attributes default to "", a missing IsLead to false. Names that match no
// writable field are ignored.
func NewUser(login string, properties []UserProperty) (User, error) {
	values := make(map[string]string, len(properties))
	for _, property := range properties {
		if _, exists := values[property.Name]; exists {
			return User{}, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidArgument, property.Name)
		}
		values[property.Name] = property.Value
	}

	user := User{Login: login}
	for _, f := range userFields {
		if f.set == nil {
			continue
		}
		value, ok := values[f.name]
		if !ok {
			continue
		}
		if err := f.set(&user, value); err != nil {
			return User{}, fmt.Errorf("set %s: %w", f.name, err)
		}
	}

	return user, nil
}

// ParseIsLead accepts "true" or "false" in any case, ignoring surrounding whitespace.
func ParseIsLead(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidArgument, AttrIsLead, value)
	}
}

func lookupUserField(name string) (userField, bool) {
	for _, f := range userFields {
		if f.name == name {
			return f, true
		}
	}
	return userField{}, false
}
