package demo

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// User is an account allowed to log in.
type User struct {
	Username     string
	PasswordHash []byte
	Roles        []string
	IsActive     bool
}

// NewUser hashes password with bcrypt and returns an active user.
func NewUser(username, password string, roles ...string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return User{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		IsActive:     true,
	}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// UserDirectory looks up accounts by username.
type UserDirectory interface {
	FindUser(ctx context.Context, username string) (User, error)
}

// MemoryUsers is an in-memory UserDirectory.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryUsers creates a directory holding users.
func NewMemoryUsers(users ...User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[string]User, len(users))}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

// Add stores u, replacing an account with the same username.
func (m *MemoryUsers) Add(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
}

// FindUser returns the account or ErrUserNotFound.
func (m *MemoryUsers) FindUser(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}
