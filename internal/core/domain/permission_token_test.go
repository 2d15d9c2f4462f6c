package domain

import (
	"errors"
	"testing"
)

func TestEncodePermission(t *testing.T) {
	if got := EncodePermission(PermissionKindRole, 7); got != "Role:7" {
		t.Fatalf("expected Role:7, got %s", got)
	}
	if got := EncodePermission(PermissionKindRequest, 0); got != "Request:0" {
		t.Fatalf("expected Request:0, got %s", got)
	}
}

func TestDecodePermissionRoundTrip(t *testing.T) {
	for _, kind := range []PermissionKind{PermissionKindRole, PermissionKindRequest} {
		for _, id := range []int{0, 1, 7, 42, 65535, 2147483647} {
			ref, err := DecodePermission(EncodePermission(kind, id))
			if err != nil {
				t.Fatalf("decode %s:%d: %v", kind, id, err)
			}
			if ref.Kind != kind || ref.ID != id {
				t.Fatalf("expected (%s, %d), got (%s, %d)", kind, id, ref.Kind, ref.ID)
			}
			if ref.String() != EncodePermission(kind, id) {
				t.Fatalf("expected String to re-encode token, got %s", ref.String())
			}
		}
	}
}

func TestDecodePermissionRejectsMalformedTokens(t *testing.T) {
	cases := map[string]string{
		"missing separator": "Role7",
		"empty":             "",
		"unknown kind":      "Group:3",
		"prefix only match": "Roleplay:5",
		"lowercase kind":    "role:5",
		"non numeric id":    "Request:abc",
		"empty id":          "Role:",
		"negative id":       "Role:-1",
		"overflow id":       "Role:2147483648",
		"extra separator":   "Role:1:2",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodePermission(token); !errors.Is(err, ErrMalformedIdentifier) {
				t.Fatalf("expected ErrMalformedIdentifier for %q, got %v", token, err)
			}
		})
	}
}

func TestDecodePermissionsStopsAtFirstBadToken(t *testing.T) {
	refs, err := DecodePermissions([]string{"Role:1", "Request:2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 || refs[0].Kind != PermissionKindRole || refs[1].Kind != PermissionKindRequest {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	refs, err = DecodePermissions([]string{"Role:1", "oops", "Request:2"})
	if !errors.Is(err, ErrMalformedIdentifier) {
		t.Fatalf("expected ErrMalformedIdentifier, got %v", err)
	}
	if refs != nil {
		t.Fatalf("expected no refs on failure, got %+v", refs)
	}
}
