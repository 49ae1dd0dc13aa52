// Package identity signs users in and out, issues session-bound access
// tokens, and notifies subscribers whenever a session's user changes.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
	applogger "github.com/noah-isme/learnlingo-api/pkg/logger"
)

type userStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

type sessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
}

// Config defines token and logging behaviour.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
	// LogFilter drops matching entries from this provider's logger only.
	LogFilter applogger.Filter
}

// Event reports that the user behind SessionID changed. A nil User means
// the session ended.
type Event struct {
	SessionID string
	User      *models.AuthUser
}

// Provider implements password and federated sign-in over server-side sessions.
type Provider struct {
	users     userStore
	sessions  sessionStore
	verifier  TokenVerifier
	validator *validator.Validate
	logger    *zap.Logger
	config    Config
	now       func() time.Time

	mu          sync.RWMutex
	nextSub     int
	subscribers map[int]func(Event)
}

// NewProvider constructs a Provider. verifier may be nil when federated
// sign-in is not configured.
func NewProvider(users userStore, sessions sessionStore, verifier TokenVerifier, validate *validator.Validate, logger *zap.Logger, cfg Config) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 120 * time.Hour
	}
	return &Provider{
		users:       users,
		sessions:    sessions,
		verifier:    verifier,
		validator:   validate,
		logger:      applogger.WithFilter(logger.Named("identity"), cfg.LogFilter),
		config:      cfg,
		now:         func() time.Time { return time.Now().UTC() },
		subscribers: make(map[int]func(Event)),
	}
}

// PopupNoiseFilter matches the opener-policy warnings emitted around popup
// based federated sign-in.
func PopupNoiseFilter() applogger.Filter {
	return applogger.AllOf(
		applogger.MatchAny("Cross-Origin-Opener-Policy"),
		applogger.MatchAny("window.closed", "window.close", "popup.ts"),
	)
}

// Subscribe registers fn for user-changed events and returns a function that
// removes it.
func (p *Provider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

func (p *Provider) publish(ev Event) {
	p.mu.RLock()
	subs := make([]func(Event), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// SignUp registers a password account and signs it in.
func (p *Provider) SignUp(ctx context.Context, req models.SignUpRequest) (*models.SessionResponse, error) {
	if err := p.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-up payload")
	}
	email := normalizeEmail(req.Email)

	existing, err := p.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, appErrors.ErrEmailTaken
	case err != nil && !gateway.IsNotFound(err):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashed := string(hash)
	now := p.now()
	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: &hashed,
		Provider:     models.ProviderPassword,
		Role:         models.RoleStudent,
		Favorites:    map[string]bool{},
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	return p.issueSession(ctx, user, req.IP, req.UserAgent)
}

// SignIn authenticates email and password.
func (p *Provider) SignIn(ctx context.Context, req models.SignInRequest) (*models.SessionResponse, error) {
	if err := p.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-in payload")
	}

	user, err := p.users.FindUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if gateway.IsNotFound(err) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.PasswordHash == nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	p.touch(ctx, user)
	return p.issueSession(ctx, user, req.IP, req.UserAgent)
}

// SignInWithFederatedProvider verifies an external identity token and signs
// the matching user in, provisioning the account on first use.
func (p *Provider) SignInWithFederatedProvider(ctx context.Context, req models.FederatedSignInRequest) (*models.SessionResponse, error) {
	if err := p.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid federated sign-in payload")
	}
	if p.verifier == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "federated sign-in is not configured")
	}

	ident, err := p.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		p.logger.Warn("federated token rejected", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid identity token")
	}
	if ident.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity token carries no email")
	}

	email := normalizeEmail(ident.Email)
	user, err := p.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		p.touch(ctx, user)
	case gateway.IsNotFound(err):
		now := p.now()
		user = &models.User{
			Email:     email,
			Name:      ident.Name,
			Provider:  models.ProviderGoogle,
			Role:      models.RoleStudent,
			Favorites: map[string]bool{},
			CreatedAt: now,
			LastLogin: now,
		}
		if err := p.users.CreateUser(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	return p.issueSession(ctx, user, req.IP, req.UserAgent)
}

// SignOut revokes the session behind claims.
func (p *Provider) SignOut(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil || claims.SessionID() == "" {
		return appErrors.ErrUnauthorized
	}
	if err := p.sessions.RevokeSession(ctx, claims.SessionID(), p.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	p.publish(Event{SessionID: claims.SessionID()})
	return nil
}

// Authenticate validates an access token and the session it references.
func (p *Provider) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := p.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	session, err := p.sessions.FindSession(ctx, claims.SessionID())
	if err != nil {
		if gateway.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !session.Active(p.now()) || session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return claims, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (p *Provider) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.Secret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// CurrentUser loads the signed-in user behind claims.
func (p *Provider) CurrentUser(ctx context.Context, claims *models.JWTClaims) (*models.AuthUser, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := p.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if gateway.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return models.AuthUserFrom(user), nil
}

func (p *Provider) touch(ctx context.Context, user *models.User) {
	now := p.now()
	if err := p.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		p.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.LastLogin = now
}

func (p *Provider) issueSession(ctx context.Context, user *models.User, ip, userAgent string) (*models.SessionResponse, error) {
	issuedAt := p.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: issuedAt.Add(p.config.TokenTTL),
		CreatedAt: issuedAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := p.sessions.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	claims := &models.JWTClaims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.Name,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    p.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	authUser := models.AuthUserFrom(user)
	p.publish(Event{SessionID: session.ID, User: authUser})
	return &models.SessionResponse{AccessToken: signed, ExpiresAt: session.ExpiresAt, User: *authUser}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
