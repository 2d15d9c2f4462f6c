package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PermissionKind names the catalog a composite permission token addresses.
type PermissionKind string

const (
	// PermissionKindRole addresses the IT roles catalog and the UserITRole grants.
	PermissionKindRole PermissionKind = "Role"
	// PermissionKindRequest addresses the request-rights catalog and the UserRequestRight grants.
	PermissionKindRequest PermissionKind = "Request"
)

const permissionTokenSeparator = ":"

// PermissionRef is a decoded composite permission token.
type PermissionRef struct {
	Kind PermissionKind
	ID   int
}

// String renders the reference back into its token form.
func (r PermissionRef) String() string {
	return EncodePermission(r.Kind, r.ID)
}

// EncodePermission produces "<Kind>:<id>".
func EncodePermission(kind PermissionKind, id int) string {
	return string(kind) + permissionTokenSeparator + strconv.Itoa(id)
}

// DecodePermission splits token on its first ':' and validates both halves.
// The kind must equal "Role" or "Request" exactly, so "Roleplay:5" is rejected.
func DecodePermission(token string) (PermissionRef, error) {
	prefix, suffix, found := strings.Cut(token, permissionTokenSeparator)
	if !found {
		return PermissionRef{}, fmt.Errorf("%w: %q has no kind separator", ErrMalformedIdentifier, token)
	}

	var kind PermissionKind
	switch PermissionKind(prefix) {
	case PermissionKindRole:
		kind = PermissionKindRole
	case PermissionKindRequest:
		kind = PermissionKindRequest
	default:
		return PermissionRef{}, fmt.Errorf("%w: %q has unknown kind %q", ErrMalformedIdentifier, token, prefix)
	}

	id, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || id < 0 || id > math.MaxInt32 {
		return PermissionRef{}, fmt.Errorf("%w: %q has invalid id %q", ErrMalformedIdentifier, token, suffix)
	}

	return PermissionRef{Kind: kind, ID: int(id)}, nil
}

// DecodePermissions decodes a batch, stopping at the first malformed token.
func DecodePermissions(tokens []string) ([]PermissionRef, error) {
	refs := make([]PermissionRef, 0, len(tokens))
	for _, token := range tokens {
		ref, err := DecodePermission(token)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
