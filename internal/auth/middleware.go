package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/database/users"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/logging"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUser     = "auth_user"
	ContextKeyAuthType = "auth_type" // "local" or "bearer"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeLocal  AuthType = "local"
	AuthTypeBearer AuthType = "bearer"
)

// IdentityStore resolves identities to users.
type IdentityStore interface {
	EnsureIdentity(id users.Identity) (*entities.User, error)
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	users    IdentityStore
	verifier *TokenVerifier
	config   config.Auth
	log      *zap.Logger
}

// NewMiddleware creates a new authentication middleware. In jwt mode a
// secret is required.
func NewMiddleware(store IdentityStore, cfg config.Auth) (*Middleware, error) {
	m := &Middleware{
		users:  store,
		config: cfg,
		log:    logging.Named("auth"),
	}
	if cfg.Mode == config.AuthModeJWT {
		verifier, err := NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
		m.verifier = verifier
	}
	return m, nil
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, authType, err := m.authenticate(c)
		if err != nil {
			if !errors.Is(err, ErrMissingToken) && !errors.Is(err, ErrInvalidToken) {
				m.log.Error("Failed to resolve identity", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyAuthType, authType)
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context) (*entities.User, AuthType, error) {
	if m.config.Mode != config.AuthModeJWT {
		user, err := m.users.EnsureIdentity(users.LocalDevIdentity)
		return user, AuthTypeLocal, err
	}

	raw, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		if m.config.AllowLocal {
			user, err := m.users.EnsureIdentity(users.LocalDevIdentity)
			return user, AuthTypeLocal, err
		}
		return nil, "", ErrMissingToken
	}

	identity, err := m.verifier.Verify(raw)
	if err != nil {
		m.log.Debug("Rejected bearer token", zap.Error(err))
		return nil, "", err
	}
	user, err := m.users.EnsureIdentity(identity)
	return user, AuthTypeBearer, err
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request was not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUser retrieves the authenticated user from the context.
func GetUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return ""
}
