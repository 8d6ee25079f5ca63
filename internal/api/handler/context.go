package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures wrap domain.ErrValidation so they surface as a
// ValidationError category.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.BadRequest(validationCategory)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// writeFailure reports a failed write. Known categories become a 400 naming
// the category; anything else is left for the error handler.
func writeFailure(err error) error {
	if cat := domain.Category(err); cat != "" {
		return domain.BadRequest(cat)
	}
	return err
}

var validationCategory = domain.Category(domain.ErrValidation)
