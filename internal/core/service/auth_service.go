package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const passwordCost = 10

// AuthService implements signup and credential resolution.
type AuthService struct {
	users  ports.UserRepository
	tokens *TokenManager
	log    zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users ports.UserRepository, tokens *TokenManager, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// Signup hashes the password, stores the account and returns it together with
// a freshly issued token.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !domain.ValidRole(role) {
		return nil, "", fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, "", fmt.Errorf("%w: password too long", domain.ErrValidation)
		}
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Role:         role,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(created.ID, "")
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user signed up")
	return created, token, nil
}

// AuthenticateBasic resolves a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller, including in timing. Only
// records whose username equals username exactly are considered; an empty
// username never matches.
func (s *AuthService) AuthenticateBasic(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	found, err := s.users.Find(ctx, domain.UserFilter{Username: username})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	matches := slices.DeleteFunc(found, func(u *domain.User) bool {
		return u == nil || u.Username != username
	})

	if len(matches) == 0 {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if len(matches) > 1 {
		s.log.Warn().Str("username", username).Int("matches", len(matches)).Msg("duplicate username, using first match")
	}

	user := matches[0]
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// AuthenticateBearer verifies token and loads the user it names.
func (s *AuthService) AuthenticateBearer(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) IssueToken(user *domain.User, window string) (string, error) {
	if user == nil {
		return "", domain.ErrInvalidToken
	}
	return s.tokens.Issue(user.ID, window)
}

// dummy returns a hash that never matches, used to spend the same bcrypt work
// on unknown usernames as on known ones.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("bookshelf-unknown-user"), passwordCost)
		if err != nil {
			s.log.Error().Err(err).Msg("generate dummy hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
