package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserStore handles user database operations
type UserStore struct {
	db *sql.DB
}

// User represents an account
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"` // Never expose in JSON
	Bio        string    `json:"bio,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewUserStore creates a new user store
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, password, bio, avatar_url, created_at, last_active`

// CreateUser creates a new user with a hashed password
func (s *UserStore) CreateUser(ctx context.Context, username, email, password string) (int64, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var userID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, email, string(hashedPassword)).Scan(&userID)

	return userID, err
}

// GetUserByID retrieves a user by ID
func (s *UserStore) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	return s.getUser(ctx, `WHERE id = $1`, userID)
}

// GetUserByUsername retrieves a user by username
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

// GetUserByEmail retrieves a user by email
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `WHERE email = $1`, email)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg interface{}) (*User, error) {
	var user User
	var bio, avatar sql.NullString
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM users %s
	`, userColumns, where), arg).Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&bio, &avatar, &user.CreatedAt, &user.LastActive)
	if err != nil {
		return nil, err
	}
	user.Bio = bio.String
	user.AvatarURL = avatar.String
	return &user, nil
}

// UpdateProfile updates the user's editable profile fields
func (s *UserStore) UpdateProfile(ctx context.Context, userID int64, bio, avatarURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET bio = $1, avatar_url = $2 WHERE id = $3
	`, bio, avatarURL, userID)
	return err
}

// UpdateLastActive updates the user's last active timestamp
func (s *UserStore) UpdateLastActive(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_active = CURRENT_TIMESTAMP WHERE id = $1
	`, userID)
	return err
}

// DeleteUser deletes a user
func (s *UserStore) DeleteUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

// VerifyPassword checks credentials and returns the user on success
func (s *UserStore) VerifyPassword(ctx context.Context, username, password string) (*User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid password")
	}

	return user, nil
}
