package middleware

import (
	"errors"
	"strings"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/pkg/jwt"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/blogsphere/core/internal/store"
	"github.com/gin-gonic/gin"
)

const ContextKeyPrincipal = "principal"

var errNoToken = errors.New("token is required")

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// Auth returns a middleware that requires a valid bearer token belonging to
// an existing user.
func Auth(tokens TokenParser, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolvePrincipal(c, tokens, users)
		if err != nil {
			if errors.Is(err, errNoToken) {
				response.Unauthorized(c, "Not authorized, no token")
				return
			}
			if !errors.Is(err, jwt.ErrInvalidToken) && !errors.Is(err, store.ErrNotFound) {
				_ = c.Error(err)
			}
			response.Unauthorized(c, "Not authorized, token failed")
			return
		}
		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// OptionalAuth sets the principal if a valid token is present, but does not
// block the request.
func OptionalAuth(tokens TokenParser, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := resolvePrincipal(c, tokens, users); err == nil {
			c.Set(ContextKeyPrincipal, principal)
		}
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentPrincipal(c).IsElevated() {
			response.Forbidden(c, "Not authorized as an admin")
			return
		}
		c.Next()
	}
}

// resolvePrincipal loads the role from the user record on every request so
// demotions take effect before the token expires.
func resolvePrincipal(c *gin.Context, tokens TokenParser, users store.UserStore) (*models.Principal, error) {
	token := extractToken(c)
	if token == "" {
		return nil, errNoToken
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := users.FindUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	return &models.Principal{ID: user.ID, Role: user.Role}, nil
}

// CurrentPrincipal returns the authenticated principal, or nil.
func CurrentPrincipal(c *gin.Context) *models.Principal {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

// IsAuthenticated returns true if the request carries a valid principal.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentPrincipal(c) != nil
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips the Bearer prefix. Headers without
// the prefix carry no token.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) < 7 || !strings.EqualFold(token[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(token[7:])
}
