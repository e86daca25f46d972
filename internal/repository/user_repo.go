package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vetchat/internal/db"
)

type UserRepository interface {
	// GetByUsernameOrEmail returns nil, nil when no user matches.
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*db.User, error)
	// Create hashes the password and stores the user.
	Create(ctx context.Context, username, email, password, role string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*db.User, error) {
	var user db.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = $1 OR email = $1 LIMIT 1",
		usernameOrEmail).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, username, email, password, role string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	query := "INSERT INTO users (username, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)"
	_, err = r.db.ExecContext(ctx, query, username, email, string(hashedPassword), role, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// MemoryUserRepository is the in-process credential store.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  []db.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1}
}

func (r *MemoryUserRepository) GetByUsernameOrEmail(_ context.Context, usernameOrEmail string) (*db.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == usernameOrEmail || strings.EqualFold(u.Email, usernameOrEmail) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, username, email, password, role string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return ErrUserExists
		}
	}
	r.users = append(r.users, db.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	r.nextID++
	return nil
}
