package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookshelf-api/internal/api/middleware"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const msgBookNotFound = "Book not found"

// BookHandler handles HTTP requests for the book catalogue. Capability checks
// happen in the route middleware; handlers only see authorised identities.
type BookHandler struct {
	service ports.BookService
}

func NewBookHandler(service ports.BookService) *BookHandler {
	return &BookHandler{service: service}
}

// --- Request / Response types ---

type createBookRequest struct {
	Title  string   `json:"title" validate:"required"`
	Author string   `json:"author,omitempty"`
	Auth   []string `json:"auth" validate:"required,min=1,dive,required"`
}

type updateBookRequest struct {
	Title  *string   `json:"title,omitempty"`
	Author *string   `json:"author,omitempty"`
	Auth   *[]string `json:"auth,omitempty"`
}

type emptyResponse struct{}

// List handles GET /books.
//
// @Summary      List the books visible to the caller's role
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Book
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /books [get]
func (h *BookHandler) List(c echo.Context) error {
	books, err := h.service.List(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return c.JSON(http.StatusOK, books)
}

// Get handles GET /books/:id.
//
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Book id"
// @Success      200  {object}  domain.Book
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	book, err := h.service.Get(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return domain.NotFound(msgBookNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Create handles POST /books.
//
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBookRequest  true  "Book"
// @Success      200   {object}  emptyResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeFailure(err)
	}

	if _, err := h.service.Create(c.Request().Context(), ports.CreateBookInput{
		Title:  req.Title,
		Author: req.Author,
		Auth:   req.Auth,
	}); err != nil {
		return writeFailure(err)
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}

// Update handles PATCH /books/:id.
//
// @Summary      Update a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Book id"
// @Param        body  body      updateBookRequest  true  "Fields to change"
// @Success      200   {object}  emptyResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /books/{id} [patch]
func (h *BookHandler) Update(c echo.Context) error {
	var req updateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeFailure(err)
	}

	err := h.service.Update(c.Request().Context(), c.Param("id"), domain.BookPatch{
		Title:  req.Title,
		Author: req.Author,
		Auth:   req.Auth,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(msgBookNotFound)
		}
		return writeFailure(err)
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}

// Delete handles DELETE /books/:id.
//
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Book id"
// @Success      200  {object}  emptyResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /books/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(msgBookNotFound)
		}
		return writeFailure(err)
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}
