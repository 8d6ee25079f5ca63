package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIdentity_Can(t *testing.T) {
	reader := NewIdentity(&User{ID: "1", Role: RoleUser}, []string{CapabilityRead})
	if !reader.Can(CapabilityRead) {
		t.Fatalf("expected read to be granted")
	}
	if reader.Can(CapabilityCreate) {
		t.Fatalf("expected create to be denied")
	}

	editor := NewIdentity(&User{ID: "2", Role: RoleEditor}, []string{CapabilityRead, CapabilityCreate})
	if !editor.Can(CapabilityCreate) {
		t.Fatalf("expected create to be granted")
	}
}

func TestIdentity_Can_FailsClosed(t *testing.T) {
	var nilIdentity *Identity
	if nilIdentity.Can(CapabilityRead) {
		t.Fatalf("nil identity must be denied")
	}

	unresolved := NewIdentity(&User{ID: "3", Role: "ghost"}, nil)
	for _, c := range []string{CapabilityRead, CapabilityCreate, CapabilityUpdate, CapabilityDelete} {
		if unresolved.Can(c) {
			t.Fatalf("identity without a role record must be denied %q", c)
		}
	}

	noUser := &Identity{Capabilities: []string{CapabilityRead}}
	if noUser.Can(CapabilityRead) {
		t.Fatalf("identity without a user must be denied")
	}
}

func TestIdentity_CapabilitiesAreCopied(t *testing.T) {
	caps := []string{CapabilityRead}
	id := NewIdentity(&User{ID: "1"}, caps)
	caps[0] = CapabilityDelete
	if id.Can(CapabilityDelete) {
		t.Fatalf("identity must not alias the caller's slice")
	}
}

func TestCategory(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("insert book: %w", ErrDuplicateKey), "DuplicateKeyError"},
		{fmt.Errorf("%w: title is required", ErrValidation), "ValidationError"},
		{ErrInvalidID, "CastError"},
		{errors.New("connection reset"), ""},
	}
	for _, tc := range cases {
		if got := Category(tc.err); got != tc.want {
			t.Fatalf("Category(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestBook_Validate(t *testing.T) {
	if err := (&Book{Title: "Dune", Auth: []string{RoleUser}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&Book{Auth: []string{RoleUser}}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}
	if err := (&Book{Title: "Dune"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing auth, got %v", err)
	}
}

func TestBookPatch_Validate(t *testing.T) {
	blank := "  "
	if err := (BookPatch{Title: &blank}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank title, got %v", err)
	}
	empty := []string{}
	if err := (BookPatch{Auth: &empty}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty auth, got %v", err)
	}
	if !(BookPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}
