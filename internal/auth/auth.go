// Package auth implements account registration, login and bearer sessions.
// Passwords are stored and compared as plain text, preserving the behavior
// of the data this service migrates; hashing is a known follow-up
// (see the passwordHash field on core.User).
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"spendsense/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password too short")
)

// minPasswordLen applies to registration and password changes only;
// existing accounts log in with whatever they have.
const minPasswordLen = 4

// UserStore persists the global account list.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]core.User, error)
	SaveUsers(ctx context.Context, users []core.User) error
}

// ActivityLogger records security-relevant events in the user's activity
// log. Implemented by services.LedgerService.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID, action, entity, details string)
}

type Service struct {
	store  UserStore
	logger ActivityLogger

	mu       sync.Mutex
	sessions map[string]string // token -> userID
}

func NewService(store UserStore, logger ActivityLogger) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		sessions: make(map[string]string),
	}
}

// Register creates an account with the default role and preferences. The
// first registered account becomes the admin.
func (s *Service) Register(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, core.ErrEmptyName
	}
	if len(password) < minPasswordLen {
		return core.User{}, ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return core.User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return core.User{}, ErrUsernameTaken
		}
	}

	role := "user"
	if len(users) == 0 {
		role = "admin"
	}
	user := core.User{
		ID:       "user-" + uuid.NewString(),
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
		Preferences: core.UserPreferences{
			Theme: "dark",
			Font:  "font-sans",
		},
	}
	users = append(users, user)
	if err := s.store.SaveUsers(ctx, users); err != nil {
		return core.User{}, fmt.Errorf("save users: %w", err)
	}

	if s.logger != nil {
		s.logger.LogActivity(ctx, user.ID, core.ActionAdd, core.EntityUser,
			fmt.Sprintf("Registered account %q", user.Username))
	}
	return user, nil
}

// Login checks the password by direct comparison and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, string, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return core.User{}, "", fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) && u.Password == password {
			token, err := s.openSession(u.ID)
			if err != nil {
				return core.User{}, "", err
			}
			return u, token, nil
		}
	}
	return core.User{}, "", ErrInvalidCredentials
}

func (s *Service) openSession(userID string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := "ses_" + hex.EncodeToString(b)

	s.mu.Lock()
	s.sessions[token] = userID
	s.mu.Unlock()
	return token, nil
}

// UserFromToken resolves a bearer token to a user id.
func (s *Service) UserFromToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	return userID, ok
}

// Logout drops the session. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// User returns the account by id.
func (s *Service) User(ctx context.Context, userID string) (core.User, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return core.User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.ID == userID {
			return u, nil
		}
	}
	return core.User{}, ErrUserNotFound
}

// ChangePassword verifies the current password, stores the new one and
// records the change in the activity log.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLen {
		return ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if users[i].Password != current {
			return ErrInvalidCredentials
		}
		users[i].Password = next
		if err := s.store.SaveUsers(ctx, users); err != nil {
			return fmt.Errorf("save users: %w", err)
		}
		if s.logger != nil {
			s.logger.LogActivity(ctx, userID, core.ActionPasswordChange, core.EntityUser,
				"Password changed")
		}
		return nil
	}
	return ErrUserNotFound
}

// UpdateProfile replaces the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, profile core.UserProfile) error {
	return s.updateUser(ctx, userID, func(u *core.User) { u.Profile = profile })
}

// UpdatePreferences replaces the user's display preferences.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs core.UserPreferences) error {
	return s.updateUser(ctx, userID, func(u *core.User) { u.Preferences = prefs })
}

func (s *Service) updateUser(ctx context.Context, userID string, apply func(*core.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		if users[i].ID == userID {
			apply(&users[i])
			if err := s.store.SaveUsers(ctx, users); err != nil {
				return fmt.Errorf("save users: %w", err)
			}
			return nil
		}
	}
	return ErrUserNotFound
}
