package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType  `json:"token_type"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      model.Role `json:"role"`
}

// SessionStore tracks which refresh tokens are still valid, and when all
// sessions of a user were last revoked.
type SessionStore interface {
	Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error
	Exists(ctx context.Context, userID uuid.UUID, jti string) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, jti string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
	MarkRevoked(ctx context.Context, userID uuid.UUID, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
}

// AuthService handles password hashing, JWT issuance and refresh sessions.
type AuthService struct {
	cfg      *config.Config
	sessions SessionStore
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, sessions SessionStore) *AuthService {
	return &AuthService{cfg: cfg, sessions: sessions, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueTokens signs a fresh access/refresh pair for user and registers the refresh token.
func (s *AuthService) IssueTokens(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	return s.issue(ctx, user.ID, user.Role)
}

func (s *AuthService) issue(ctx context.Context, userID uuid.UUID, role model.Role) (*model.TokenPair, error) {
	access, _, err := s.sign(userID, role, TokenTypeAccess, s.cfg.JWTExpiry, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	refresh, jti, err := s.sign(userID, role, TokenTypeRefresh, s.cfg.JWTRefreshExpiry, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, userID, jti, s.cfg.JWTRefreshExpiry); err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.JWTExpiry.Seconds()),
	}, nil
}

func (s *AuthService) sign(userID uuid.UUID, role model.Role, typ TokenType, ttl time.Duration, secret string) (string, string, error) {
	jti := uuid.NewString()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
		UserID:    userID,
		Role:      role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, jti, nil
}

// ValidateAccessToken parses an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, TokenTypeAccess, s.cfg.JWTSecret)
}

func (s *AuthService) parse(tokenStr string, want TokenType, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != want || claims.UserID == uuid.Nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair is issued.
// A refresh token that was already rotated or revoked yields ErrSessionInvalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.parse(refreshToken, TokenTypeRefresh, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.Exists(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrSessionInvalidated
	}

	if err := s.sessions.Revoke(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, claims.UserID, claims.Role)
}

// Logout revokes refreshToken when given, otherwise every session of userID.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return s.RevokeAll(ctx, userID)
	}

	claims, err := s.parse(refreshToken, TokenTypeRefresh, s.cfg.JWTRefreshSecret)
	if errors.Is(err, ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return ErrTokenInvalid
	}
	return s.sessions.Revoke(ctx, userID, claims.ID)
}

// RevokeAll ends every session of userID. Refresh tokens are dropped and
// access tokens issued so far are rejected by CheckSession.
func (s *AuthService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	return s.sessions.MarkRevoked(ctx, userID, s.now(), s.cfg.JWTExpiry)
}

// CheckSession returns ErrSessionInvalidated for an access token issued
// before the last RevokeAll of its user. Both sides are compared in whole
// seconds, the precision of the iat claim.
func (s *AuthService) CheckSession(ctx context.Context, claims *Claims) error {
	at, revoked, err := s.sessions.RevokedAt(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if !revoked {
		return nil
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Unix() < at.Unix() {
		return ErrSessionInvalidated
	}
	return nil
}
