package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes teachers from students.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Profile holds the display data of a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar,omitempty"`
}

// User represents a teacher or student account.
// Username is unique; Email is intentionally not.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// FullName renders "last first", the order used across analytics views.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Profile.LastName + " " + u.Profile.FirstName)
}

// Validate checks the stored-record invariants of a user.
func (u *User) Validate() error {
	f := FieldErrors{}
	if !usernamePattern.MatchString(u.Username) {
		f["username"] = "username must be 3-30 letters, digits, underscores or hyphens"
	}
	if !u.Role.Valid() {
		f["role"] = "role must be teacher or student"
	}
	if u.PasswordHash == "" {
		f["password"] = "password hash is required"
	}
	if n := len([]rune(u.Profile.FirstName)); n == 0 || n > 50 {
		f["profile.first_name"] = "first name must be 1-50 characters"
	}
	if n := len([]rune(u.Profile.LastName)); n == 0 || n > 50 {
		f["profile.last_name"] = "last name must be 1-50 characters"
	}
	return f.orNil()
}

// UserPublic is the user shape returned by auth endpoints.
type UserPublic struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	Profile  Profile   `json:"profile"`
}

// Public strips credentials from a user.
func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, Profile: u.Profile}
}

// ProfileRequest is the profile part of a registration payload.
type ProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Avatar    string `json:"avatar" binding:"omitempty,url,max=500"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string         `json:"username" binding:"required,username"`
	Email    string         `json:"email" binding:"required,email,max=254"`
	Password string         `json:"password" binding:"required,min=6,max=128"`
	Role     Role           `json:"role" binding:"required,oneof=teacher student"`
	Profile  ProfileRequest `json:"profile" binding:"required"`
}

// LoginRequest is the payload for username + password authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is an access token with the refresh token that renews it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User   UserPublic `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}
