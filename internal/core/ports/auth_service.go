package ports

import (
	"context"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// AuthService resolves credentials to users and mints session tokens.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, string, error)
	// AuthenticateBasic returns domain.ErrInvalidCredentials for both an
	// unknown username and a wrong password.
	AuthenticateBasic(ctx context.Context, username, password string) (*domain.User, error)
	// AuthenticateBearer returns a *domain.TokenError when verification fails
	// and domain.ErrInvalidToken when the token names no usable user.
	AuthenticateBearer(ctx context.Context, token string) (*domain.User, error)
	// IssueToken signs a token for user; window is the raw caller-supplied
	// expiry override in seconds and may be empty or garbage.
	IssueToken(user *domain.User, window string) (string, error)
}
