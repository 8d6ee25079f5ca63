package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type stubUserRepo struct {
	users  []*domain.User
	nextID int
	getErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Get(_ context.Context, id string) (*domain.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if len(id) != 8 {
		return nil, domain.ErrInvalidID
	}
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) Find(_ context.Context, f domain.UserFilter) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if f.Username != "" && u.Username != f.Username {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrDuplicateKey
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user%04d", r.nextID)
	r.users = append(r.users, created)
	return cloneUser(created), nil
}

// insert bypasses the uniqueness check to model duplicate records.
func (r *stubUserRepo) insert(username, password, role string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	r.nextID++
	u := &domain.User{ID: fmt.Sprintf("user%04d", r.nextID), Username: username, PasswordHash: string(hash), Role: role}
	r.users = append(r.users, u)
	return cloneUser(u)
}

func (r *stubUserRepo) Update(context.Context, string, domain.UserPatch) error { return nil }
func (r *stubUserRepo) Delete(context.Context, string) error                  { return nil }

func newTestAuthService(repo ports.UserRepository) (*AuthService, *TokenManager) {
	tokens := newTestTokenManager("secret")
	return NewAuthService(repo, tokens, zerolog.Nop()), tokens
}

func TestAuthService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestAuthService(repo)

	user, token, err := svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice",
		Password: "pass123",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}

	id, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if id != user.ID {
		t.Fatalf("token subject %q does not match user %q", id, user.ID)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	if _, _, err := svc.Signup(context.Background(), ports.SignupInput{Password: "pass"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing username, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Password: "pass", Role: "root"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad role, got %v", err)
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	_, _, _ = svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Password: "pass"})
	_, _, err := svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Password: "pass2"})
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if domain.Category(err) != "DuplicateKeyError" {
		t.Fatalf("unexpected category %q", domain.Category(err))
	}
}

func TestAuthService_AuthenticateBasic_Success(t *testing.T) {
	repo := newStubUserRepo()
	want := repo.insert("carol", "s3cret", domain.RoleEditor)
	svc, _ := newTestAuthService(repo)

	user, err := svc.AuthenticateBasic(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("AuthenticateBasic failed: %v", err)
	}
	if user.ID != want.ID {
		t.Fatalf("expected user %s, got %s", want.ID, user.ID)
	}
}

func TestAuthService_AuthenticateBasic_NoEnumeration(t *testing.T) {
	repo := newStubUserRepo()
	repo.insert("dave", "goodpass", domain.RoleUser)
	svc, _ := newTestAuthService(repo)

	_, wrongPassword := svc.AuthenticateBasic(context.Background(), "dave", "badpass")
	_, unknownUser := svc.AuthenticateBasic(context.Background(), "ghost", "badpass")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("failures must be indistinguishable: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthService_AuthenticateBasic_EmptyUsername(t *testing.T) {
	repo := newStubUserRepo()
	repo.insert("root", "hunter2", domain.RoleAdmin)
	svc, _ := newTestAuthService(repo)

	user, err := svc.AuthenticateBasic(context.Background(), "", "hunter2")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for an empty username, got user=%v err=%v", user, err)
	}
	if user != nil {
		t.Fatalf("expected no user, got %+v", user)
	}
}

// looseUserRepo returns every record regardless of the filter.
type looseUserRepo struct {
	*stubUserRepo
}

func (r looseUserRepo) Find(ctx context.Context, _ domain.UserFilter) ([]*domain.User, error) {
	return r.stubUserRepo.Find(ctx, domain.UserFilter{})
}

func TestAuthService_AuthenticateBasic_RequiresExactUsername(t *testing.T) {
	repo := newStubUserRepo()
	repo.insert("root", "hunter2", domain.RoleAdmin)
	want := repo.insert("gina", "pw", domain.RoleUser)
	svc, _ := newTestAuthService(looseUserRepo{repo})

	if _, err := svc.AuthenticateBasic(context.Background(), "gina", "hunter2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("another user's password must not match, got %v", err)
	}

	user, err := svc.AuthenticateBasic(context.Background(), "gina", "pw")
	if err != nil {
		t.Fatalf("AuthenticateBasic failed: %v", err)
	}
	if user.ID != want.ID {
		t.Fatalf("expected user %s, got %s", want.ID, user.ID)
	}
}

func TestAuthService_AuthenticateBasic_DuplicateUsernameUsesFirst(t *testing.T) {
	repo := newStubUserRepo()
	first := repo.insert("erin", "one", domain.RoleUser)
	repo.insert("erin", "two", domain.RoleAdmin)
	svc, _ := newTestAuthService(repo)

	user, err := svc.AuthenticateBasic(context.Background(), "erin", "one")
	if err != nil {
		t.Fatalf("AuthenticateBasic failed: %v", err)
	}
	if user.ID != first.ID {
		t.Fatalf("expected first match %s, got %s", first.ID, user.ID)
	}

	if _, err := svc.AuthenticateBasic(context.Background(), "erin", "two"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("second record must not be consulted, got %v", err)
	}
}

func TestAuthService_AuthenticateBearer(t *testing.T) {
	repo := newStubUserRepo()
	u := repo.insert("frank", "pw", domain.RoleUser)
	svc, tokens := newTestAuthService(repo)

	token, err := svc.IssueToken(u, "")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	got, err := svc.AuthenticateBearer(context.Background(), token)
	if err != nil {
		t.Fatalf("AuthenticateBearer failed: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected %s, got %s", u.ID, got.ID)
	}

	tokens.now = fixedClock(epoch.Add(2 * time.Hour))
	_, err = svc.AuthenticateBearer(context.Background(), token)
	var tokenErr *domain.TokenError
	if !errors.As(err, &tokenErr) || tokenErr.Category != domain.TokenExpired {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestAuthService_AuthenticateBearer_UnknownSubject(t *testing.T) {
	svc, tokens := newTestAuthService(newStubUserRepo())

	for _, id := range []string{"user9999", "malformed-id"} {
		token, err := tokens.Issue(id, "")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := svc.AuthenticateBearer(context.Background(), token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("subject %q: expected ErrInvalidToken, got %v", id, err)
		}
	}
}

func TestAuthService_AuthenticateBearer_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.getErr = errors.New("connection refused")
	svc, tokens := newTestAuthService(repo)

	token, _ := tokens.Issue("user0001", "")
	_, err := svc.AuthenticateBearer(context.Background(), token)
	if err == nil || errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected store failure to surface as unclassified error, got %v", err)
	}
}
