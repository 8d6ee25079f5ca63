package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/bookshelf-api/internal/api/middleware"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/service"
)

type memBookRepo struct {
	books  []*domain.Book
	nextID int
}

func (r *memBookRepo) Get(_ context.Context, id string) (*domain.Book, error) {
	for _, b := range r.books {
		if b.ID == id {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memBookRepo) Find(_ context.Context, f domain.BookFilter) ([]*domain.Book, error) {
	var out []*domain.Book
	for _, b := range r.books {
		if f.AuthorizedRole != "" && !slices.Contains(b.Auth, f.AuthorizedRole) {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memBookRepo) Create(_ context.Context, b *domain.Book) (*domain.Book, error) {
	r.nextID++
	clone := *b
	clone.ID = fmt.Sprintf("b%d", r.nextID)
	r.books = append(r.books, &clone)
	out := clone
	return &out, nil
}

func (r *memBookRepo) Update(_ context.Context, id string, p domain.BookPatch) error {
	for _, b := range r.books {
		if b.ID != id {
			continue
		}
		if p.Title != nil {
			b.Title = *p.Title
		}
		if p.Author != nil {
			b.Author = *p.Author
		}
		if p.Auth != nil {
			b.Auth = *p.Auth
		}
		return nil
	}
	return domain.ErrNotFound
}

func (r *memBookRepo) Delete(_ context.Context, id string) error {
	for i, b := range r.books {
		if b.ID == id {
			r.books = slices.Delete(r.books, i, i+1)
			return nil
		}
	}
	return domain.ErrNotFound
}

func seededBooks() *memBookRepo {
	return &memBookRepo{
		nextID: 3,
		books: []*domain.Book{
			{ID: "b1", Title: "Public", Auth: []string{domain.RoleUser, domain.RoleEditor, domain.RoleAdmin}},
			{ID: "b2", Title: "Drafts", Auth: []string{domain.RoleEditor, domain.RoleAdmin}},
			{ID: "b3", Title: "Ledger", Auth: []string{domain.RoleAdmin}},
		},
	}
}

// serve runs h behind the same middleware the router installs for the route.
func serve(c echo.Context, role, capability, denied string, h echo.HandlerFunc) error {
	if role != "" {
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer t")
	}
	return asRole(role)(middleware.RequireCapability(capability, denied)(h))(c)
}

func TestBookHandler_List_FiltersByRole(t *testing.T) {
	h := NewBookHandler(service.NewBookService(seededBooks(), zerolog.Nop()))

	cases := map[string][]string{
		domain.RoleUser:   {"Public"},
		domain.RoleEditor: {"Public", "Drafts"},
		domain.RoleAdmin:  {"Public", "Drafts", "Ledger"},
	}
	for role, want := range cases {
		c, rec := newTestContext(http.MethodGet, "/books", "")
		if err := serve(c, role, domain.CapabilityRead, middleware.MsgUnauthorizedAccess, h.List); err != nil {
			t.Fatalf("%s: handler error: %v", role, err)
		}

		var books []domain.Book
		if err := json.Unmarshal(rec.Body.Bytes(), &books); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		var titles []string
		for _, b := range books {
			titles = append(titles, b.Title)
		}
		slices.Sort(titles)
		slices.Sort(want)
		if !slices.Equal(titles, want) {
			t.Fatalf("%s: expected %v, got %v", role, want, titles)
		}
	}
}

func TestBookHandler_List_EmptyIsArray(t *testing.T) {
	h := NewBookHandler(service.NewBookService(&memBookRepo{}, zerolog.Nop()))

	c, rec := newTestContext(http.MethodGet, "/books", "")
	if err := serve(c, domain.RoleUser, domain.CapabilityRead, middleware.MsgUnauthorizedAccess, h.List); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestBookHandler_List_Anonymous(t *testing.T) {
	h := NewBookHandler(service.NewBookService(seededBooks(), zerolog.Nop()))

	c, _ := newTestContext(http.MethodGet, "/books", "")
	err := serve(c, "", domain.CapabilityRead, middleware.MsgUnauthorizedAccess, h.List)
	expectAppError(t, err, http.StatusForbidden, "Unauthorized access")
}

func TestBookHandler_Get(t *testing.T) {
	h := NewBookHandler(service.NewBookService(seededBooks(), zerolog.Nop()))

	c, rec := newTestContext(http.MethodGet, "/books/b2", "")
	c.SetParamNames("id")
	c.SetParamValues("b2")
	if err := serve(c, domain.RoleEditor, domain.CapabilityRead, middleware.MsgUnauthorizedAccess, h.Get); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var book domain.Book
	if err := json.Unmarshal(rec.Body.Bytes(), &book); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if book.ID != "b2" || book.Title != "Drafts" {
		t.Fatalf("unexpected book: %+v", book)
	}

	c, _ = newTestContext(http.MethodGet, "/books/b2", "")
	c.SetParamNames("id")
	c.SetParamValues("b2")
	err := serve(c, domain.RoleUser, domain.CapabilityRead, middleware.MsgUnauthorizedAccess, h.Get)
	expectAppError(t, err, http.StatusNotFound, msgBookNotFound)
}

func TestBookHandler_Create(t *testing.T) {
	repo := seededBooks()
	h := NewBookHandler(service.NewBookService(repo, zerolog.Nop()))

	c, rec := newTestContext(http.MethodPost, "/books", `{"title":"Dune","author":"Herbert","auth":["user"]}`)
	if err := serve(c, domain.RoleEditor, domain.CapabilityCreate, "User cannot create books", h.Create); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "{}\n" {
		t.Fatalf("expected 200 {}, got %d %q", rec.Code, rec.Body.String())
	}
	if len(repo.books) != 4 {
		t.Fatalf("book not stored")
	}
}

func TestBookHandler_Create_WithoutCapability(t *testing.T) {
	repo := seededBooks()
	h := NewBookHandler(service.NewBookService(repo, zerolog.Nop()))

	c, _ := newTestContext(http.MethodPost, "/books", `{"title":"Dune","auth":["user"]}`)
	err := serve(c, domain.RoleUser, domain.CapabilityCreate, "User cannot create books", h.Create)
	expectAppError(t, err, http.StatusForbidden, "User cannot create books")
	if len(repo.books) != 3 {
		t.Fatalf("book must not be stored")
	}
}

func TestBookHandler_Create_Invalid(t *testing.T) {
	h := NewBookHandler(service.NewBookService(seededBooks(), zerolog.Nop()))

	c, _ := newTestContext(http.MethodPost, "/books", `{"author":"Nobody"}`)
	err := serve(c, domain.RoleAdmin, domain.CapabilityCreate, "User cannot create books", h.Create)
	expectAppError(t, err, http.StatusBadRequest, "ValidationError")
}

func TestBookHandler_Update(t *testing.T) {
	repo := seededBooks()
	h := NewBookHandler(service.NewBookService(repo, zerolog.Nop()))

	c, _ := newTestContext(http.MethodPatch, "/books/b1", `{"title":"Public Domain"}`)
	c.SetParamNames("id")
	c.SetParamValues("b1")
	if err := serve(c, domain.RoleEditor, domain.CapabilityUpdate, "User cannot update books", h.Update); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if repo.books[0].Title != "Public Domain" {
		t.Fatalf("title not updated: %q", repo.books[0].Title)
	}

	c, _ = newTestContext(http.MethodPatch, "/books/b1", `{"title":"Nope"}`)
	c.SetParamNames("id")
	c.SetParamValues("b1")
	err := serve(c, domain.RoleUser, domain.CapabilityUpdate, "User cannot update books", h.Update)
	expectAppError(t, err, http.StatusForbidden, "User cannot update books")

	c, _ = newTestContext(http.MethodPatch, "/books/b9", `{"title":"Ghost"}`)
	c.SetParamNames("id")
	c.SetParamValues("b9")
	err = serve(c, domain.RoleAdmin, domain.CapabilityUpdate, "User cannot update books", h.Update)
	expectAppError(t, err, http.StatusNotFound, msgBookNotFound)

	c, _ = newTestContext(http.MethodPatch, "/books/b1", `{"auth":[]}`)
	c.SetParamNames("id")
	c.SetParamValues("b1")
	err = serve(c, domain.RoleAdmin, domain.CapabilityUpdate, "User cannot update books", h.Update)
	expectAppError(t, err, http.StatusBadRequest, "ValidationError")
}

func TestBookHandler_Delete(t *testing.T) {
	repo := seededBooks()
	h := NewBookHandler(service.NewBookService(repo, zerolog.Nop()))

	c, _ := newTestContext(http.MethodDelete, "/books/b3", "")
	c.SetParamNames("id")
	c.SetParamValues("b3")
	err := serve(c, domain.RoleEditor, domain.CapabilityDelete, "User cannot delete books", h.Delete)
	expectAppError(t, err, http.StatusForbidden, "User cannot delete books")

	c, _ = newTestContext(http.MethodDelete, "/books/b3", "")
	c.SetParamNames("id")
	c.SetParamValues("b3")
	if err := serve(c, domain.RoleAdmin, domain.CapabilityDelete, "User cannot delete books", h.Delete); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(repo.books) != 2 {
		t.Fatalf("book not deleted")
	}
}
