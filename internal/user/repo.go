package user

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"geoattend/internal/store"
)

const emailConstraint = "users_email_key"

const userColumns = `id, email, name, role, password_hash, created_at`

// Repository persists users in Postgres.
type Repository struct {
	pool store.Queryer
}

// NewRepository creates a repo.
func NewRepository(pool store.Queryer) *Repository {
	return &Repository{pool: pool}
}

// Create inserts u, assigning an id when empty.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	exec := store.QueryerFromContext(ctx, r.pool)
	err := exec.QueryRow(ctx, `
        INSERT INTO users (id, email, name, role, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at
    `, u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, emailConstraint) {
			return ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// Upsert creates or updates the user with u.Email.
func (r *Repository) Upsert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	exec := store.QueryerFromContext(ctx, r.pool)
	return exec.QueryRow(ctx, `
        INSERT INTO users (id, email, name, role, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO UPDATE
           SET name = EXCLUDED.name,
               role = EXCLUDED.role,
               password_hash = EXCLUDED.password_hash
        RETURNING id, created_at
    `, u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
}

// GetByEmail returns the user with email or ErrNotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanOne(row)
}

// GetByID returns the user with id or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanOne(row)
}

// List returns a page of users ordered by email.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*User, string, error) {
	if limit <= 0 {
		return nil, "", ErrInvalidPageSize
	}
	if offset < 0 {
		return nil, "", ErrInvalidPageToken
	}

	exec := store.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+userColumns+`
          FROM users
         ORDER BY email
         LIMIT $1
        OFFSET $2
    `, limit+1, offset)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, "", err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(users) > limit {
		next = strconv.Itoa(offset + limit)
		users = users[:limit]
	}
	return users, next, nil
}

func scanOne(row pgx.Row) (*User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}
