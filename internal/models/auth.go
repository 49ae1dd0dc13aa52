package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignUpRequest registers a password account.
type SignUpRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SignInRequest holds credentials for authenticating a user.
type SignInRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// FederatedSignInRequest carries an identity token from an external provider.
type FederatedSignInRequest struct {
	Provider  string `json:"provider" validate:"omitempty,oneof=google"`
	IDToken   string `json:"idToken" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens. The registered ID
// claim carries the session id.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for.
func (c *JWTClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// AuthUser projects the claims into the request identity.
func (c *JWTClaims) AuthUser() *AuthUser {
	if c == nil {
		return nil
	}
	return &AuthUser{ID: c.UserID, Email: c.Email, DisplayName: c.DisplayName, Role: c.Role}
}
