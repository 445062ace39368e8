package authpw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tasknotes/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string // email -> userID
	createErr  error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
	}
}

func (m *mockUserStore) UserExists(_ context.Context, username, email string) (bool, error) {
	if _, ok := m.emailIndex[strings.ToLower(email)]; ok {
		return true, nil
	}
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	if m.createErr != nil {
		return store.User{}, m.createErr
	}
	m.users[user.ID] = user
	m.emailIndex[strings.ToLower(user.Email)] = user.ID
	return user, nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[strings.ToLower(email)]; ok {
		return m.users[userID], nil
	}
	return store.User{}, store.ErrNotFound
}

func newTestService(m *mockUserStore) *Service {
	svc := NewService(m)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	m := newMockUserStore()
	svc := newTestService(m)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "  avery ",
		Email:    "Avery@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" || !strings.HasPrefix(user.ID, "usr_") {
		t.Fatalf("expected usr_ prefixed id, got %q", user.ID)
	}
	if user.Username != "avery" || user.Email != "avery@example.com" {
		t.Fatalf("expected trimmed username and lowered email, got %+v", user)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plain text")
	}

	loggedIn, err := svc.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, loggedIn.ID)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	m := newMockUserStore()
	svc := newTestService(m)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Username: "avery", Email: "a@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, RegisterRequest{Username: "avery", Email: "other@example.com", Password: "password1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
	_, err = svc.Register(ctx, RegisterRequest{Username: "other", Email: "A@example.com", Password: "password1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestRegisterMapsUniqueViolationRace(t *testing.T) {
	m := newMockUserStore()
	m.createErr = store.ErrUserTaken
	svc := newTestService(m)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "avery", Email: "a@example.com", Password: "password1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newMockUserStore())
	cases := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"missing username", RegisterRequest{Email: "a@example.com", Password: "password1"}, "username"},
		{"bad email", RegisterRequest{Username: "avery", Email: "nope", Password: "password1"}, "email"},
		{"short password", RegisterRequest{Username: "avery", Email: "a@example.com", Password: "short"}, "password"},
		{"password over 72 bytes", RegisterRequest{Username: "avery", Email: "a@example.com", Password: strings.Repeat("é", 72)}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected InputError, got %v", err)
			}
			if inputErr.Field != tc.field {
				t.Fatalf("expected field %s, got %s (%s)", tc.field, inputErr.Field, inputErr.Message)
			}
		})
	}
}

func TestRegisterAcceptsSeventyTwoBytePassword(t *testing.T) {
	svc := newTestService(newMockUserStore())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "avery",
		Email:    "a@example.com",
		Password: strings.Repeat("é", 36),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newMockUserStore()
	svc := newTestService(m)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Username: "avery", Email: "a@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	_, err := svc.Login(ctx, LoginRequest{Email: "a@example.com"})
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "password" {
		t.Fatalf("expected password InputError, got %v", err)
	}
}
