package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roleverse/roleverse/internal/store"
)

// ErrNotFound is returned when a user or session does not exist.
var ErrNotFound = errors.New("user not found")

// SessionTTL is how long a login session stays valid without activity.
const SessionTTL = time.Hour

type User struct {
	ID        string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Session is a login session resolved from the request cookie.
type Session struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Login finds or creates the user for username and opens a new session.
func (s *Service) Login(ctx context.Context, username string) (User, Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, Session{}, fmt.Errorf("username must not be empty")
	}

	u, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		u, err = s.create(ctx, username)
	}
	if err != nil {
		return User{}, Session{}, err
	}

	now := s.now().UTC()
	u.LastLogin = &now
	if err := s.save(ctx, u); err != nil {
		return User{}, Session{}, err
	}

	sess := Session{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		CreatedAt:    now,
		LastActivity: now,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return User{}, Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, "user_session:"+sess.ID, string(data), SessionTTL); err != nil {
		return User{}, Session{}, fmt.Errorf("save session: %w", err)
	}

	return u, sess, nil
}

// Logout invalidates a session. Unknown session ids are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Delete(ctx, "user_session:"+sessionID)
}

// Resolve maps a session id back to its user, refreshing the session TTL.
func (s *Service) Resolve(ctx context.Context, sessionID string) (User, error) {
	if sessionID == "" {
		return User{}, ErrNotFound
	}

	data, ok, err := s.store.Get(ctx, "user_session:"+sessionID)
	if err != nil {
		return User{}, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return User{}, ErrNotFound
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return User{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}

	sess.LastActivity = s.now().UTC()
	if refreshed, err := json.Marshal(sess); err == nil {
		_ = s.store.Set(ctx, "user_session:"+sessionID, string(refreshed), SessionTTL)
	}

	return s.GetByID(ctx, sess.UserID)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	data, ok, err := s.store.Get(ctx, "user:"+id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return User{}, ErrNotFound
	}

	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	id, ok, err := s.store.Get(ctx, "username:"+username)
	if err != nil {
		return User{}, fmt.Errorf("resolve username: %w", err)
	}
	if !ok {
		return User{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Service) create(ctx context.Context, username string) (User, error) {
	u := User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
		IsActive:  true,
	}
	if err := s.save(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, "user:"+u.ID, string(data), 0); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := s.store.Set(ctx, "username:"+u.Username, u.ID, 0); err != nil {
		return fmt.Errorf("save username index: %w", err)
	}
	return nil
}
