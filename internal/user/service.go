package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	defaultPageSize   = 50
	maxPageSize       = 200
)

// Store is the persistence required by Service.
type Store interface {
	Create(ctx context.Context, u *User) error
	Upsert(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, string, error)
}

// Service manages accounts and password checks.
type Service struct {
	store Store
	cost  int
}

// NewService constructs a Service using bcrypt.DefaultCost.
func NewService(store Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// CreateUser validates in, hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*User, error) {
	u, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return u, nil
}

// EnsureUser creates the account or resets its name, role and password.
func (s *Service) EnsureUser(ctx context.Context, in CreateInput) (*User, error) {
	u, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("user: upsert: %w", err)
	}
	return u, nil
}

func (s *Service) prepare(in CreateInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	role := in.Role
	if role == "" {
		role = RoleEmployee
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}
	return &User{Email: email, Name: name, Role: role, PasswordHash: string(hash)}, nil
}

// Authenticate returns the user whose email and password match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user: lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns the user with id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.store.GetByID(ctx, id)
}

// ListResult is one page of users.
type ListResult struct {
	Users         []*User `json:"users"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// ListUsers returns a page of users ordered by email.
func (s *Service) ListUsers(ctx context.Context, pageSize int, pageToken string) (ListResult, error) {
	size, err := normalizePageSize(pageSize)
	if err != nil {
		return ListResult{}, err
	}
	offset, err := parsePageToken(pageToken)
	if err != nil {
		return ListResult{}, err
	}
	users, next, err := s.store.List(ctx, size, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("user: list: %w", err)
	}
	return ListResult{Users: users, NextPageToken: next}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePageSize(size int) (int, error) {
	switch {
	case size < 0:
		return 0, ErrInvalidPageSize
	case size == 0:
		return defaultPageSize, nil
	case size > maxPageSize:
		return maxPageSize, nil
	default:
		return size, nil
	}
}

func parsePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}
	return offset, nil
}
