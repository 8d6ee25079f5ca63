package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Book is a catalogue entry. Auth lists the roles allowed to see it.
type Book struct {
	ID     string   `json:"_id"`
	Title  string   `json:"title"`
	Author string   `json:"author,omitempty"`
	Auth   []string `json:"auth"`
}

// VisibleTo reports whether members of role may see the book.
func (b *Book) VisibleTo(role string) bool {
	return slices.Contains(b.Auth, role)
}

// Validate checks the fields required before a book is persisted.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(b.Auth) == 0 {
		return fmt.Errorf("%w: auth is required", ErrValidation)
	}
	return nil
}

// BookFilter narrows a book listing. Empty fields are ignored.
type BookFilter struct {
	// AuthorizedRole keeps only books whose Auth list contains this role.
	AuthorizedRole string
	Author         string
}

// BookPatch holds the fields of a partial book update. Nil fields are left untouched.
type BookPatch struct {
	Title  *string
	Author *string
	Auth   *[]string
}

// Empty reports whether the patch carries no changes.
func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Auth == nil
}

// Validate rejects patches that would leave a book invalid.
func (p BookPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if p.Auth != nil && len(*p.Auth) == 0 {
		return fmt.Errorf("%w: auth cannot be empty", ErrValidation)
	}
	return nil
}
