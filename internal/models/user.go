package models

import "time"

// UserRole gates administrative routes.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// Identity providers a user can sign in with.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is the persisted account record. Favorites is only populated by
// backends that store it inline with the user document.
type User struct {
	ID           string          `json:"id" db:"id" firestore:"-"`
	Email        string          `json:"email" db:"email" firestore:"email"`
	Name         string          `json:"name" db:"name" firestore:"name"`
	PasswordHash *string         `json:"-" db:"password_hash" firestore:"passwordHash,omitempty"`
	Provider     string          `json:"provider" db:"provider" firestore:"provider"`
	Role         UserRole        `json:"role" db:"role" firestore:"role"`
	Favorites    map[string]bool `json:"favorites,omitempty" db:"-" firestore:"favorites"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at" firestore:"createdAt"`
	LastLogin    time.Time       `json:"lastLogin" db:"last_login" firestore:"lastLogin"`
}

// AuthUser is the signed-in identity exposed to request handlers.
type AuthUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Role        UserRole `json:"role"`
}

// AuthUserFrom projects a stored user into its session identity.
func AuthUserFrom(u *User) *AuthUser {
	if u == nil {
		return nil
	}
	return &AuthUser{ID: u.ID, Email: u.Email, DisplayName: u.Name, Role: u.Role}
}

// Session is a server-side sign-in session referenced by the access token.
type Session struct {
	ID        string     `json:"id" db:"id" firestore:"-"`
	UserID    string     `json:"user_id" db:"user_id" firestore:"userId"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at" firestore:"expiresAt"`
	CreatedAt time.Time  `json:"created_at" db:"created_at" firestore:"createdAt"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at" firestore:"revokedAt,omitempty"`
	IPAddress string     `json:"ip_address" db:"ip_address" firestore:"ipAddress"`
	UserAgent string     `json:"user_agent" db:"user_agent" firestore:"userAgent"`
}

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
