package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

func runCapability(t *testing.T, identity *domain.Identity, capability, denied string) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set(identityKey, identity)
	}

	called := false
	h := RequireCapability(capability, denied)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return called, h(c)
}

func TestRequireCapability_Allowed(t *testing.T) {
	identity := domain.NewIdentity(&domain.User{ID: "u1", Role: domain.RoleEditor}, []string{domain.CapabilityRead, domain.CapabilityCreate})

	called, err := runCapability(t, identity, domain.CapabilityCreate, "User cannot create books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestRequireCapability_Denied(t *testing.T) {
	identity := domain.NewIdentity(&domain.User{ID: "u1", Role: domain.RoleUser}, []string{domain.CapabilityRead})

	called, err := runCapability(t, identity, domain.CapabilityCreate, "User cannot create books")
	if called {
		t.Fatalf("next must not be called")
	}
	assertAppError(t, err, http.StatusForbidden, "User cannot create books")
}

func TestRequireCapability_NoIdentity(t *testing.T) {
	called, err := runCapability(t, nil, domain.CapabilityCreate, "User cannot create books")
	if called {
		t.Fatalf("next must not be called")
	}
	assertAppError(t, err, http.StatusForbidden, MsgUnauthorizedAccess)
}
